package pipeline

import (
	"strings"

	"estimatex/internal"
	"estimatex/internal/recognize"
	"estimatex/internal/util"
)

// tableColumns locates the interesting columns in a header row.
type tableColumns struct {
	code int
	desc int
	unit int
	qty  int
}

func inferColumns(headers []string) tableColumns {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(strings.TrimSpace(h)))
	}
	return tableColumns{
		code: findHeaderIndex(norm, []string{"dsr", "code", "item no"}),
		desc: findHeaderIndex(norm, []string{"desc", "particular", "item of work"}),
		unit: findHeaderIndex(norm, []string{"unit"}),
		qty:  findHeaderIndex(norm, []string{"qty", "quantity"}),
	}
}

func (c tableColumns) usable() bool {
	return c.code >= 0 && c.desc >= 0
}

// rowToItem builds one InputItem from a table row; rows without a valid code
// or description are skipped.
func rowToItem(cells []string, cols tableColumns, itemNumber int) (internal.InputItem, bool) {
	code := pickCell(cells, cols.code)
	description := pickCell(cells, cols.desc)
	if code == "" || description == "" {
		return internal.InputItem{}, false
	}

	cleanCode := recognize.CleanCode(code)
	if cleanCode == "" {
		return internal.InputItem{}, false
	}

	chapter, section := recognize.SplitCode(cleanCode)
	item := internal.InputItem{
		ItemNumber:  itemNumber,
		Code:        code,
		CleanCode:   cleanCode,
		Chapter:     chapter,
		Section:     section,
		Description: description,
		Unit:        recognize.NormalizeUnit(pickCell(cells, cols.unit)),
		Keywords:    util.Keywords(description),
	}

	if qty, ok := util.ParseNumber(pickCell(cells, cols.qty)); ok {
		item.Quantity = util.FloatPtr(qty)
	}

	return item, true
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

// dedupeByRawCode keeps the first occurrence of each raw code token and
// renumbers the survivors.
func dedupeByRawCode(items []internal.InputItem) []internal.InputItem {
	seen := map[string]struct{}{}
	out := make([]internal.InputItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.Code]; dup {
			continue
		}
		seen[item.Code] = struct{}{}
		item.ItemNumber = len(out) + 1
		out = append(out, item)
	}
	return out
}
