package extract

import (
	"regexp"
	"strings"

	"estimatex/internal"
	"estimatex/internal/document"
	"estimatex/internal/recognize"
	"estimatex/internal/util"
)

const (
	descMaxLines   = 6
	descSameLine   = 10
	descParentMin  = 15
	unitScanLines  = 20
	sayValueLines  = 5
	costPerLines   = 3
	descShortLimit = 5
)

// costSectionKeywords mark the start of the pricing breakdown; description
// collection stops when one appears.
var costSectionKeywords = []string{
	"add ", "total", "cost for", "say", "material", "labour", "details of cost",
}

var reSayBlockText = regexp.MustCompile(`(?i)Say\s*\n+\s*([0-9,]+\.?\d*)`)

// definitionCode returns the dotted code a line defines, or "". A line that
// is itself a plain number ("550.00") is a value from the cost breakdown, not
// a code definition, even though it matches the dotted pattern.
func definitionCode(line string) string {
	trimmed := strings.TrimSpace(line)
	if _, isNumber := util.ParseNumber(trimmed); isNumber {
		return ""
	}
	return recognize.LeadingCode(trimmed)
}

// extractDetailed handles the multi-block layout: pass one collects a
// description per code across the whole document, pass two resolves unit and
// the deferred "Say" rate for every code occurrence. Codes with no
// resolvable rate yield no entry; an unpriced detailed-format line is not a
// complete record.
func (e *RateExtractor) extractDetailed(doc *document.Document, volume string) RateSet {
	descriptions := collectDescriptions(doc)
	rates := RateSet{}

	for pageIdx, page := range doc.Pages {
		for blockIdx, block := range page.Blocks {
			for lineIdx, line := range block.Lines {
				code := definitionCode(line)
				if code == "" {
					continue
				}

				rate, ok := findRate(doc, pageIdx, blockIdx, lineIdx)
				if !ok {
					continue
				}

				description := buildDescription(code, descriptions)
				chapter, section := recognize.SplitCode(code)

				rates[code] = append(rates[code], internal.RateEntry{
					Code:        code,
					Chapter:     chapter,
					Section:     section,
					Description: description,
					Unit:        e.findUnit(block.Lines, lineIdx),
					Rate:        rate,
					Volume:      volume,
					Page:        page.Number,
					Source:      internal.SourceEnhanced,
					Keywords:    util.Keywords(description),
				})
			}
		}
	}

	return rates
}

// collectDescriptions is pass one: map each code to the description text
// found at its definition site. Last occurrence wins; detailed documents are
// linear top to bottom.
func collectDescriptions(doc *document.Document) map[string]string {
	out := map[string]string{}

	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			for lineIdx, line := range block.Lines {
				code := definitionCode(line)
				if code == "" {
					continue
				}
				if desc := descriptionAt(block.Lines, lineIdx, code); desc != "" {
					out[code] = desc
				}
			}
		}
	}

	return out
}

// descriptionAt gathers description text for the code starting at lineIdx:
// the remainder of the code line plus subsequent lines until the pricing
// section, the next code, or the line cap.
func descriptionAt(lines []string, lineIdx int, code string) string {
	var parts []string

	remainder := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[lineIdx]), code))
	if len(remainder) > descSameLine && !util.IsNumericLine(remainder) {
		parts = append(parts, remainder)
	}

	for i := lineIdx + 1; i < len(lines) && len(parts) < descMaxLines; i++ {
		text := strings.TrimSpace(lines[i])
		lower := strings.ToLower(text)

		if isDetailHeaderLine(lower) {
			continue
		}
		if hasCostKeyword(lower) {
			break
		}
		if recognize.LeadingCode(text) != "" {
			break
		}
		if util.IsNumericLine(text) || len(text) < 3 {
			continue
		}
		if len(text) > descShortLimit {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

var detailHeaderLines = map[string]struct{}{
	"code": {}, "description": {}, "unit": {}, "rate": {}, "amount": {},
	"details": {}, "cum": {}, "sqm": {}, "nos": {}, "each": {}, "kg": {},
	"mtr": {}, "ltr": {}, "metre": {}, "quintal": {},
}

func isDetailHeaderLine(lower string) bool {
	_, ok := detailHeaderLines[lower]
	return ok
}

func hasCostKeyword(lower string) bool {
	for _, kw := range costSectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildDescription prepends the parent code's description when it exists and
// carries enough text: sub-items' full meaning depends on the umbrella
// heading in detailed schedules.
func buildDescription(code string, descriptions map[string]string) string {
	var parts []string

	if parent := recognize.ParentCode(code); parent != "" {
		if parentDesc, ok := descriptions[parent]; ok && len(parentDesc) > descParentMin {
			parts = append(parts, parentDesc)
		}
	}
	if own, ok := descriptions[code]; ok && own != "" {
		parts = append(parts, own)
	}

	if len(parts) == 0 {
		return placeholderDescription(code)
	}
	return strings.Join(parts, " ")
}

// findUnit scans the lines after the code line for the first unit token.
func (e *RateExtractor) findUnit(lines []string, lineIdx int) string {
	end := lineIdx + 1 + unitScanLines
	if end > len(lines) {
		end = len(lines)
	}
	for i := lineIdx + 1; i < end; i++ {
		if e.rec.IsUnit(lines[i]) {
			return recognize.NormalizeUnit(lines[i])
		}
	}
	return ""
}

// findRate resolves the rate for a code occurrence with three priorities:
// a "Say" value in the current block, a "Say"/"Cost per" value in the next
// block on the page or the first blocks of the next page, and finally a
// regex over the block's raw text.
func findRate(doc *document.Document, pageIdx, blockIdx, lineIdx int) (float64, bool) {
	page := doc.Pages[pageIdx]
	block := page.Blocks[blockIdx]

	if rate, ok := sayValueInLines(block.Lines[lineIdx:], sayValueLines); ok {
		return rate, true
	}

	for _, candidate := range followingBlocks(doc, pageIdx, blockIdx) {
		if rate, ok := sayValueInLines(candidate.Lines, sayValueLines); ok {
			return rate, true
		}
		if rate, ok := costPerValueInLines(candidate.Lines); ok {
			return rate, true
		}
	}

	if m := reSayBlockText.FindStringSubmatch(block.RawText()); m != nil {
		if rate, ok := util.ParseNumberInRange(m[1], sayRegexMin, sayRegexMax); ok {
			return rate, true
		}
	}

	return 0, false
}

// followingBlocks is the bounded continuation window: the next block on the
// same page plus the first blocks of the next page.
func followingBlocks(doc *document.Document, pageIdx, blockIdx int) []document.Block {
	var out []document.Block

	page := doc.Pages[pageIdx]
	if blockIdx+1 < len(page.Blocks) {
		out = append(out, page.Blocks[blockIdx+1])
	}
	if pageIdx+1 < len(doc.Pages) {
		next := doc.Pages[pageIdx+1].Blocks
		if len(next) > nextPageBlocks {
			next = next[:nextPageBlocks]
		}
		out = append(out, next...)
	}

	return out
}

// sayValueInLines finds a line that is exactly "say" and returns the first
// plausible number within the following lines.
func sayValueInLines(lines []string, window int) (float64, bool) {
	for i, line := range lines {
		if !strings.EqualFold(strings.TrimSpace(line), "say") {
			continue
		}
		end := i + 1 + window
		if end > len(lines) {
			end = len(lines)
		}
		for j := i + 1; j < end; j++ {
			if rate, ok := util.ParseNumberInRange(lines[j], sayRateMin, sayRateMax); ok {
				return rate, true
			}
		}
	}
	return 0, false
}

// costPerValueInLines handles the "Cost per <unit>" phrasing used where no
// "Say" rounding is given.
func costPerValueInLines(lines []string) (float64, bool) {
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "cost per") {
			continue
		}
		end := i + 1 + costPerLines
		if end > len(lines) {
			end = len(lines)
		}
		for j := i + 1; j < end; j++ {
			if rate, ok := util.ParseNumberInRange(lines[j], sayRateMin, sayRateMax); ok {
				return rate, true
			}
		}
	}
	return 0, false
}
