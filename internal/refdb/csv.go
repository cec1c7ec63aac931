package refdb

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ExportCSV writes the full table as a flat CSV, one row per entry.
func (d *DB) ExportCSV(path string) (int, error) {
	entries, err := d.All()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"code", "category", "chapter", "section", "description", "unit", "rate", "volume", "page", "keywords"}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for _, e := range entries {
		record := []string{
			e.Code,
			e.Category,
			e.Chapter,
			e.Section,
			e.Description,
			e.Unit,
			strconv.FormatFloat(e.Rate, 'f', -1, 64),
			e.Volume,
			strconv.Itoa(e.Page),
			strings.Join(e.Keywords, ","),
		}
		if err := w.Write(record); err != nil {
			return 0, err
		}
	}

	w.Flush()
	return len(entries), w.Error()
}
