package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"estimatex/internal"
	"estimatex/internal/config"
	"estimatex/internal/document"
)

func testLoadConfig() config.Config {
	return config.Config{FallbackYear: "2023"}
}

func writeTemp(t *testing.T, name string, blob []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadItemsStructuredJSON(t *testing.T) {
	items := []internal.InputItem{
		{ItemNumber: 1, Code: "DSR-2023-15.7.4", CleanCode: "15.7.4", Description: "Brickwork in cement mortar"},
	}
	path := filepath.Join(t.TempDir(), "items.json")
	if err := document.WriteItems(items, "estimate.pdf", path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadItems(path, testLoadConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].CleanCode != "15.7.4" {
		t.Fatalf("items = %+v", got)
	}
}

func TestLoadItemsRawDocumentJSON(t *testing.T) {
	blob := []byte(`{
		"pages_data": [
			{"number": 1, "blocks": [
				{"lines": ["2023-15.7.4"]},
				{"lines": ["Brickwork in cement mortar 1:4 in superstructure"]},
				{"lines": ["cum", "100.50"]}
			]}
		]
	}`)
	path := writeTemp(t, "doc.json", blob)

	got, err := LoadItems(path, testLoadConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	if got[0].Code != "DSR-2023-15.7.4" || got[0].Unit != "cum" {
		t.Fatalf("item = %+v", got[0])
	}
}

func TestLoadItemsHTML(t *testing.T) {
	path := writeTemp(t, "estimate.html", []byte(estimateHTML))

	got, err := LoadItems(path, testLoadConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
}

func TestLoadItemsXLSX(t *testing.T) {
	blob := mkEstimateXLSX(t, [][]any{
		{"DSR Code", "Description of Item", "Unit", "Qty"},
		{"15.12.2", "Excavation in ordinary soil", "cum", 150},
	})
	path := writeTemp(t, "estimate.xlsx", blob)

	got, err := LoadItems(path, testLoadConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].CleanCode != "15.12.2" {
		t.Fatalf("items = %+v", got)
	}
}

func TestLoadItemsMissingFile(t *testing.T) {
	if _, err := LoadItems(filepath.Join(t.TempDir(), "absent.json"), testLoadConfig()); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
