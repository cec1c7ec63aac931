package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"estimatex/internal"
)

// ExportMatchedToXLSX writes one row per matched item plus a summary block
// underneath.
func ExportMatchedToXLSX(matched []internal.MatchedItem, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"item_number", "code", "clean_code", "chapter", "section",
		"description", "unit", "quantity",
		"rate", "amount", "match_type", "similarity_score",
		"dsr_description", "dsr_unit", "dsr_volume", "dsr_page",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range matched {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, item.ItemNumber)
		set(2, item.Code)
		set(3, item.CleanCode)
		set(4, item.Chapter)
		set(5, item.Section)
		set(6, item.Description)
		set(7, item.Unit)
		set(8, derefFloat(item.Quantity))
		set(9, derefFloat(item.Rate))
		set(10, derefFloat(item.Amount))
		set(11, string(item.MatchType))
		set(12, item.SimilarityScore)
		set(13, item.DSRDescription)
		set(14, item.DSRUnit)
		set(15, item.DSRVolume)
		set(16, derefInt(item.DSRPage))
	}

	summary := Summarize(matched)
	base := len(matched) + 3
	writeSummaryRow := func(offset int, label string, value any) {
		labelCell, _ := excelize.CoordinatesToCellName(1, base+offset)
		valueCell, _ := excelize.CoordinatesToCellName(2, base+offset)
		_ = f.SetCellValue(sheet, labelCell, label)
		_ = f.SetCellValue(sheet, valueCell, value)
	}
	writeSummaryRow(0, "total_items", summary.TotalItems)
	writeSummaryRow(1, "exact_matches", summary.ExactMatches)
	writeSummaryRow(2, "code_match_description_mismatch", summary.DescriptionMismatch)
	writeSummaryRow(3, "not_found", summary.NotFound)
	writeSummaryRow(4, "total_estimated_amount", summary.TotalEstimatedAmount)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
