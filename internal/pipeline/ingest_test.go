package pipeline

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const estimateHTML = `
<html><body>
<table>
  <tr><th>S No</th><th>DSR Code</th><th>Description of Item</th><th>Unit</th><th>Qty</th><th>Remarks</th></tr>
  <tr><td>1</td><td>DSR-2023-15.7.4</td><td>Brickwork in cement mortar 1:4</td><td>cum</td><td>100.50</td><td></td></tr>
  <tr><td>2</td><td>15.12.2</td><td>Excavation in ordinary soil</td><td>sqm</td><td>25</td><td></td></tr>
  <tr><td>3</td><td>DSR-2023-15.7.4</td><td>Duplicate row</td><td>cum</td><td>10</td><td></td></tr>
  <tr><td>4</td><td>n/a</td><td>Row without a usable code</td><td>cum</td><td>5</td><td></td></tr>
</table>
</body></html>`

func TestParseHTMLItems(t *testing.T) {
	items, err := ParseHTMLItems(strings.NewReader(estimateHTML))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.ItemNumber != 1 {
		t.Fatalf("item number = %d", first.ItemNumber)
	}
	if first.Code != "DSR-2023-15.7.4" || first.CleanCode != "15.7.4" {
		t.Fatalf("code = %q / %q", first.Code, first.CleanCode)
	}
	if first.Chapter != "15" || first.Section != "15.7" {
		t.Fatalf("chapter/section = %q/%q", first.Chapter, first.Section)
	}
	if first.Unit != "cum" {
		t.Fatalf("unit = %q", first.Unit)
	}
	if first.Quantity == nil || *first.Quantity != 100.5 {
		t.Fatalf("quantity = %v", first.Quantity)
	}

	second := items[1]
	if second.CleanCode != "15.12.2" || second.ItemNumber != 2 {
		t.Fatalf("second item = %+v", second)
	}
}

func TestParseHTMLItemsNoUsableTable(t *testing.T) {
	html := `<html><body><table><tr><th>Name</th></tr><tr><td>x</td></tr></table></body></html>`
	items, err := ParseHTMLItems(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func mkEstimateXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseXLSXItems(t *testing.T) {
	blob := mkEstimateXLSX(t, [][]any{
		{"Estimate for residential building"},
		{"S No", "DSR Code", "Description of Item", "Unit", "Qty"},
		{1, "DSR-2023-15.7.4", "Brickwork in cement mortar 1:4", "cum", 100.50},
		{2, "15.12.2", "Excavation in ordinary soil", "sqm", 25},
		{3, "", "Row without a code", "cum", 5},
	})

	items, err := ParseXLSXItems(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].CleanCode != "15.7.4" {
		t.Fatalf("clean code = %q", items[0].CleanCode)
	}
	if items[0].Quantity == nil || *items[0].Quantity != 100.5 {
		t.Fatalf("quantity = %v", items[0].Quantity)
	}
	if items[1].Description != "Excavation in ordinary soil" {
		t.Fatalf("description = %q", items[1].Description)
	}
}

func TestParseXLSXItemsHeaderTooDeep(t *testing.T) {
	// The header probe only covers the first few rows.
	blob := mkEstimateXLSX(t, [][]any{
		{"title"},
		{"subtitle"},
		{"another line"},
		{"DSR Code", "Description"},
		{"15.12.2", "Excavation in ordinary soil"},
	})

	items, err := ParseXLSXItems(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestInferColumns(t *testing.T) {
	cols := inferColumns([]string{"S No", "DSR Code", "Particulars of work", "Unit", "Quantity"})
	if cols.code != 1 || cols.desc != 2 || cols.unit != 3 || cols.qty != 4 {
		t.Fatalf("cols = %+v", cols)
	}
	if !cols.usable() {
		t.Fatal("should be usable")
	}

	cols = inferColumns([]string{"Name", "Value"})
	if cols.usable() {
		t.Fatal("should not be usable without code and description columns")
	}
}
