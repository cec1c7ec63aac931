// Package extract turns block documents into structured rate entries and
// input items. Rate schedules come in two layouts: a simple one-block-per-
// record format and a detailed format where the final rate appears as a
// deferred "Say" value after an itemized cost breakdown.
package extract

import (
	"fmt"

	"estimatex/internal"
	"estimatex/internal/document"
	"estimatex/internal/recognize"
	"estimatex/internal/util"
)

type Format string

const (
	FormatAuto     Format = "auto"
	FormatSimple   Format = "simple"
	FormatDetailed Format = "detailed"
)

const (
	sniffPages     = 20
	sniffBlocks    = 10
	sniffRateMin   = 10
	sniffRateMax   = 100000
	simpleRateMin  = 10
	simpleRateMax  = 1000000
	sayRateMin     = 10
	sayRateMax     = 1000000
	sayRegexMin    = 50
	sayRegexMax    = 100000
	maxCodeLen     = 8
	nextPageBlocks = 3
)

// RateSet maps a clean DSR code to its candidate entries in document scan
// order.
type RateSet map[string][]internal.RateEntry

type RateExtractor struct {
	rec *recognize.Recognizer
}

func NewRateExtractor(cfg recognize.Config) *RateExtractor {
	return &RateExtractor{rec: recognize.New(cfg)}
}

// Extract pulls all rate entries from a document. With FormatAuto the
// document layout is sniffed once and the whole document is extracted with
// the detected strategy.
func (e *RateExtractor) Extract(doc *document.Document, volume string, format Format) RateSet {
	switch format {
	case FormatSimple:
		return e.extractSimple(doc, volume)
	case FormatDetailed:
		return e.extractDetailed(doc, volume)
	default:
		if DetectSimpleFormat(doc) {
			return e.extractSimple(doc, volume)
		}
		return e.extractDetailed(doc, volume)
	}
}

// DetectSimpleFormat probes the first pages for a 4-line block shaped
// code/description/unit/rate. One qualifying block classifies the whole
// document as simple format.
func DetectSimpleFormat(doc *document.Document) bool {
	for p, page := range doc.Pages {
		if p >= sniffPages {
			break
		}
		for b, block := range page.Blocks {
			if b >= sniffBlocks {
				break
			}
			if len(block.Lines) != 4 {
				continue
			}
			if !recognize.IsValidCode(block.Lines[0]) {
				continue
			}
			if _, ok := util.ParseNumberInRange(block.Lines[3], sniffRateMin, sniffRateMax); ok {
				return true
			}
		}
	}
	return false
}

// extractSimple handles blocks of the shape: code, description lines, unit,
// rate. Every qualifying block yields one entry; duplicate codes accumulate.
func (e *RateExtractor) extractSimple(doc *document.Document, volume string) RateSet {
	rates := RateSet{}

	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			entry, code, ok := e.simpleBlockEntry(block, volume, page.Number)
			if ok {
				rates[code] = append(rates[code], entry)
			}
		}
	}

	return rates
}

func (e *RateExtractor) simpleBlockEntry(block document.Block, volume string, pageNo int) (internal.RateEntry, string, bool) {
	lines := block.Lines
	if len(lines) < 4 {
		return internal.RateEntry{}, "", false
	}

	code := lines[0]
	if !recognize.IsValidCode(code) || len(code) > maxCodeLen {
		return internal.RateEntry{}, "", false
	}
	if !e.rec.IsUnit(lines[len(lines)-2]) {
		return internal.RateEntry{}, "", false
	}

	rate, ok := util.ParseNumberInRange(lines[len(lines)-1], simpleRateMin, simpleRateMax)
	if !ok {
		return internal.RateEntry{}, "", false
	}

	description := joinLines(lines[1 : len(lines)-2])
	chapter, section := recognize.SplitCode(code)

	return internal.RateEntry{
		Code:        code,
		Chapter:     chapter,
		Section:     section,
		Description: description,
		Unit:        recognize.NormalizeUnit(lines[len(lines)-2]),
		Rate:        rate,
		Volume:      volume,
		Page:        pageNo,
		Source:      internal.SourceSimpleFormat,
		Keywords:    util.Keywords(description),
	}, code, true
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		if l == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += l
	}
	return out
}

func placeholderDescription(code string) string {
	return fmt.Sprintf("DSR item %s", code)
}
