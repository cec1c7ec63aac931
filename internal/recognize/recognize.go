// Package recognize classifies text blocks that carry DSR codes and pulls
// out the code plus nearby description, unit and quantity. Both the
// input-item extractor and the unstructured fallback path run through this
// one implementation; the pattern constants and window sizes live on Config
// so tests can vary them.
package recognize

import (
	"regexp"
	"strings"

	"estimatex/internal/document"
	"estimatex/internal/util"
)

var (
	reDottedCode = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	reYearCode   = regexp.MustCompile(`^(20\d{2})-(\d+\.\d+(?:\.\d+)?)$`)
	reYearLine   = regexp.MustCompile(`^20\d{2}$`)
	reYearToken  = regexp.MustCompile(`\b(20\d{2})\b`)
	reMarkerCode = regexp.MustCompile(`\b20\d{2}-\d+\.\d+`)
	reCodeLead   = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)(?:\s|$)`)
	reAnyDotted  = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)
)

// CleanCode extracts the dotted-numeric core from a raw code token,
// stripping any DSR-/year wrapper ("DSR-2023-15.7.4" → "15.7.4"). Tokens
// whose dotted run has too many segments yield "".
func CleanCode(raw string) string {
	loc := reAnyDotted.FindStringIndex(raw)
	if loc == nil {
		return ""
	}
	if loc[1] < len(raw) && raw[loc[1]] == '.' {
		return ""
	}
	return raw[loc[0]:loc[1]]
}

// Config carries the vocabulary and window sizes the recognizer scans with.
type Config struct {
	// FallbackYear is used when a DSR- marker appears without a 4-digit
	// year nearby.
	FallbackYear string

	// Units is the canonical unit vocabulary, lowercase without dots.
	Units []string

	// DescriptionMinLen is the minimum length for a line to count as a
	// natural-language description.
	DescriptionMinLen int

	// DetailWindow is how many subsequent blocks are scanned for
	// description/unit/quantity.
	DetailWindow int

	// LookbackBlocks is how many preceding blocks are scanned for a DSR-
	// marker when validating a standalone dotted code.
	LookbackBlocks int

	// MarkerScanLines is how many lines after a DSR- marker are checked
	// for the year/code continuation.
	MarkerScanLines int

	QuantityMin float64
	QuantityMax float64
}

func DefaultConfig(fallbackYear string) Config {
	return Config{
		FallbackYear:      fallbackYear,
		Units:             []string{"nos", "cum", "sqm", "kg", "metre", "mtr", "ltr", "each", "quintal"},
		DescriptionMinLen: 15,
		DetailWindow:      6,
		LookbackBlocks:    3,
		MarkerScanLines:   2,
		QuantityMin:       0.01,
		QuantityMax:       100000,
	}
}

type Recognizer struct {
	cfg   Config
	units map[string]struct{}
}

func New(cfg Config) *Recognizer {
	units := make(map[string]struct{}, len(cfg.Units))
	for _, u := range cfg.Units {
		units[u] = struct{}{}
	}
	return &Recognizer{cfg: cfg, units: units}
}

// IsValidCode reports whether a token is a dotted DSR code: a leading
// integer followed by one or two dot-segments. More segments are rejected.
func IsValidCode(token string) bool {
	return reDottedCode.MatchString(strings.TrimSpace(token))
}

// LeadingCode returns the dotted code starting a line ("15.7.4 Brickwork...")
// or "" when the line does not begin with one.
func LeadingCode(line string) string {
	m := reCodeLead.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitCode derives chapter and section from a clean code: chapter is the
// first segment, section the first two joined.
func SplitCode(cleanCode string) (chapter, section string) {
	parts := strings.Split(cleanCode, ".")
	if len(parts) == 0 {
		return "", cleanCode
	}
	chapter = parts[0]
	if len(parts) >= 2 {
		section = parts[0] + "." + parts[1]
	} else {
		section = cleanCode
	}
	return chapter, section
}

// ParentCode returns the immediate parent of a dotted code ("15.7.4" →
// "15.7", "15.7" → "15") and "" for single-segment codes.
func ParentCode(code string) string {
	idx := strings.LastIndex(code, ".")
	if idx <= 0 {
		return ""
	}
	return code[:idx]
}

// NormalizeUnit lowercases and strips dots so "Sq.m" and "cum." fold into
// the canonical vocabulary.
func NormalizeUnit(token string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(token)), ".", "")
}

// IsUnit reports whether a line is exactly a recognized unit token.
func (r *Recognizer) IsUnit(line string) bool {
	_, ok := r.units[NormalizeUnit(line)]
	return ok
}

var headerTokens = map[string]struct{}{
	"unit": {}, "qty": {}, "rate": {}, "amount": {}, "code": {},
	"description": {}, "details": {}, "dsr-": {},
}

// isHeaderToken matches column headers and similar furniture that must not
// be mistaken for descriptions.
func (r *Recognizer) isHeaderToken(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if _, ok := headerTokens[lower]; ok {
		return true
	}
	return r.IsUnit(line)
}

// DetectBlock classifies a block: hasMarker when it carries a DSR- marker or
// inline year-code; hasStandalone when a short block holds a bare dotted
// code (which still needs lookback validation in ExtractCode).
func (r *Recognizer) DetectBlock(block document.Block) (hasMarker, hasStandalone bool) {
	text := strings.Join(block.Lines, " ")
	upper := strings.ToUpper(text)

	hasMarker = strings.Contains(upper, "DSR-") || reMarkerCode.MatchString(text)
	if hasMarker {
		return true, false
	}

	// Short blocks may carry a bare code plus a stray label or two. The
	// marker lookback in ExtractCode is the false-positive guard here,
	// not block length.
	if len(block.Lines) <= 3 {
		for _, line := range block.Lines {
			if IsValidCode(line) {
				return false, true
			}
		}
	}
	return false, false
}

// ExtractCode recovers the raw and clean DSR code from the block at idx,
// trying the three spelling conventions in order: inline year-code, split
// DSR- marker, and standalone dotted code validated by marker lookback.
func (r *Recognizer) ExtractCode(blocks []document.Block, idx int) (code, cleanCode string, ok bool) {
	lines := blocks[idx].Lines

	for i, line := range lines {
		line = strings.TrimSpace(line)

		if m := reYearCode.FindStringSubmatch(line); m != nil {
			return "DSR-" + m[1] + "-" + m[2], m[2], true
		}

		if strings.Contains(strings.ToUpper(line), "DSR-") {
			if code, clean, found := r.codeAfterMarker(lines, i); found {
				return code, clean, true
			}
		}

		if IsValidCode(line) {
			if year, found := r.lookbackYear(blocks, idx); found {
				return "DSR-" + year + "-" + line, line, true
			}
		}
	}

	return "", "", false
}

// codeAfterMarker handles the split convention: a "DSR-" line followed
// within the next few lines by a year and/or a dotted code.
func (r *Recognizer) codeAfterMarker(lines []string, markerIdx int) (code, cleanCode string, ok bool) {
	year := ""
	end := markerIdx + 1 + r.cfg.MarkerScanLines
	if end > len(lines) {
		end = len(lines)
	}
	for j := markerIdx + 1; j < end; j++ {
		line := strings.TrimSpace(lines[j])

		if year == "" && reYearLine.MatchString(line) {
			year = line
			continue
		}
		if m := reYearCode.FindStringSubmatch(line); m != nil {
			return "DSR-" + m[1] + "-" + m[2], m[2], true
		}
		if IsValidCode(line) {
			if year == "" {
				year = r.cfg.FallbackYear
			}
			return "DSR-" + year + "-" + line, line, true
		}
	}
	return "", "", false
}

// lookbackYear validates a standalone dotted code by scanning up to
// LookbackBlocks preceding blocks for a DSR- marker plus a 4-digit year.
// Without that context the bare code is not treated as a DSR code.
func (r *Recognizer) lookbackYear(blocks []document.Block, idx int) (string, bool) {
	for offset := 1; offset <= r.cfg.LookbackBlocks && idx-offset >= 0; offset++ {
		text := strings.Join(blocks[idx-offset].Lines, " ")
		if !strings.Contains(strings.ToUpper(text), "DSR-") {
			continue
		}
		if m := reYearToken.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Details is the context recovered near a recognized code.
type Details struct {
	Description string
	Unit        string
	Quantity    *float64
}

// FindDetails scans a bounded window of subsequent blocks for the first
// plausible description line, the first unit token, and a nearby quantity.
func (r *Recognizer) FindDetails(blocks []document.Block, idx int) Details {
	var d Details

	end := idx + r.cfg.DetailWindow
	if end >= len(blocks) {
		end = len(blocks) - 1
	}
	for offset := idx + 1; offset <= end; offset++ {
		lines := blocks[offset].Lines

		if d.Description == "" {
			for _, line := range lines {
				if r.isDescriptionLine(line) {
					d.Description = strings.TrimSpace(line)
					break
				}
			}
		}

		if d.Unit == "" {
			unit, qty := r.unitAndQuantity(lines)
			d.Unit = unit
			d.Quantity = qty
		}

		if d.Description != "" && d.Unit != "" && d.Quantity != nil {
			break
		}
	}

	return d
}

// isDescriptionLine accepts natural-language lines only: long enough, not
// purely numeric, not a unit/header token, not a code or year line.
func (r *Recognizer) isDescriptionLine(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) <= r.cfg.DescriptionMinLen {
		return false
	}
	if util.IsNumericLine(line) {
		return false
	}
	if r.isHeaderToken(line) {
		return false
	}
	if strings.Contains(strings.ToUpper(line), "DSR") {
		return false
	}
	if reYearLine.MatchString(line) || IsValidCode(line) {
		return false
	}
	return true
}

// unitAndQuantity finds the first unit token in a block and a numeric value
// within two lines either side of it that falls in the quantity range.
func (r *Recognizer) unitAndQuantity(lines []string) (string, *float64) {
	for i, line := range lines {
		if !r.IsUnit(line) {
			continue
		}
		unit := NormalizeUnit(line)

		lo := i - 2
		if lo < 0 {
			lo = 0
		}
		hi := i + 3
		if hi > len(lines) {
			hi = len(lines)
		}
		for j := lo; j < hi; j++ {
			if j == i {
				continue
			}
			if val, ok := util.ParseNumberInRange(lines[j], r.cfg.QuantityMin, r.cfg.QuantityMax); ok {
				return unit, util.FloatPtr(val)
			}
		}
		return unit, nil
	}
	return "", nil
}
