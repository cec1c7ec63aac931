package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"estimatex/internal"
	"estimatex/internal/config"
	"estimatex/internal/document"
	"estimatex/internal/extract"
	"estimatex/internal/recognize"
)

// LoadItems reads input items from any supported source: a structured items
// JSON, a raw block document JSON (extracted on the fly), an HTML table, or
// a spreadsheet.
func LoadItems(path string, cfg config.Config) ([]internal.InputItem, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ParseHTMLItems(bytes.NewReader(blob))
	case ".xlsx", ".xls":
		return ParseXLSXItems(blob)
	}

	if document.IsStructuredItems(blob) {
		f, err := document.ParseItems(blob)
		if err != nil {
			return nil, fmt.Errorf("parse structured items: %w", err)
		}
		return f.Items, nil
	}

	doc, err := document.Parse(blob)
	if err != nil {
		return nil, fmt.Errorf("parse input document: %w", err)
	}
	extractor := extract.NewItemExtractor(recognize.DefaultConfig(cfg.FallbackYear))
	return extractor.Extract(doc), nil
}
