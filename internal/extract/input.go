package extract

import (
	"estimatex/internal"
	"estimatex/internal/document"
	"estimatex/internal/recognize"
	"estimatex/internal/util"
)

// ItemExtractor pulls to-be-priced work items out of an input document using
// the shared pattern recognizer.
type ItemExtractor struct {
	rec *recognize.Recognizer
}

func NewItemExtractor(cfg recognize.Config) *ItemExtractor {
	return &ItemExtractor{rec: recognize.New(cfg)}
}

// Extract walks the document once and emits one InputItem per distinct raw
// code token. Deduplication is on the raw code, not the clean code, so the
// same clean code under different year prefixes stays separate. A code with
// no recoverable description is discarded: without context it is not
// actionable.
func (e *ItemExtractor) Extract(doc *document.Document) []internal.InputItem {
	var items []internal.InputItem
	seen := map[string]struct{}{}

	for _, page := range doc.Pages {
		for blockIdx, block := range page.Blocks {
			if len(block.Lines) == 0 {
				continue
			}

			hasMarker, hasStandalone := e.rec.DetectBlock(block)
			if !hasMarker && !hasStandalone {
				continue
			}

			code, cleanCode, ok := e.rec.ExtractCode(page.Blocks, blockIdx)
			if !ok {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}

			details := e.rec.FindDetails(page.Blocks, blockIdx)
			if details.Description == "" {
				continue
			}

			seen[code] = struct{}{}
			chapter, section := recognize.SplitCode(cleanCode)

			items = append(items, internal.InputItem{
				ItemNumber:  len(items) + 1,
				Code:        code,
				CleanCode:   cleanCode,
				Chapter:     chapter,
				Section:     section,
				Description: details.Description,
				Unit:        details.Unit,
				Quantity:    details.Quantity,
				Keywords:    util.Keywords(details.Description),
			})
		}
	}

	return items
}
