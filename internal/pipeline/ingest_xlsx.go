package pipeline

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"estimatex/internal"
)

const headerProbeRows = 3

// ParseXLSXItems extracts input items from a spreadsheet estimate. The
// header row is searched within the first few rows of each sheet.
func ParseXLSXItems(blob []byte) ([]internal.InputItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []internal.InputItem
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		cols := tableColumns{code: -1, desc: -1, unit: -1, qty: -1}
		headerRow := -1
		for i, row := range rows {
			if i >= headerProbeRows {
				break
			}
			probe := inferColumns(row)
			if probe.usable() {
				cols = probe
				headerRow = i
				break
			}
		}
		if headerRow < 0 {
			continue
		}

		for _, row := range rows[headerRow+1:] {
			if item, ok := rowToItem(row, cols, len(items)+1); ok {
				items = append(items, item)
			}
		}
	}

	return dedupeByRawCode(items), nil
}
