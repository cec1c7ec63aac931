package document

import (
	"encoding/json"
	"os"
	"path/filepath"

	"estimatex/internal"
)

// ItemsFile is the structured input-items shape produced by item extraction
// and consumed by the matcher.
type ItemsFile struct {
	Metadata ItemsMetadata        `json:"metadata"`
	Items    []internal.InputItem `json:"items"`
}

type ItemsMetadata struct {
	SourceFile    string `json:"source_file"`
	TotalItems    int    `json:"total_items"`
	FormatVersion string `json:"format_version"`
	Type          string `json:"type"`
}

const itemsFileType = "input_items"

// IsStructuredItems reports whether a JSON blob is a structured items file,
// as opposed to a raw block document needing extraction.
func IsStructuredItems(blob []byte) bool {
	var probe struct {
		Metadata struct {
			Type string `json:"type"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return false
	}
	return probe.Metadata.Type == itemsFileType
}

func ParseItems(blob []byte) (*ItemsFile, error) {
	var f ItemsFile
	if err := json.Unmarshal(blob, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func WriteItems(items []internal.InputItem, sourceFile, path string) error {
	f := ItemsFile{
		Metadata: ItemsMetadata{
			SourceFile:    sourceFile,
			TotalItems:    len(items),
			FormatVersion: "1.0",
			Type:          itemsFileType,
		},
		Items: items,
	}
	return writeJSON(path, f)
}

// RatesFile is the per-volume extraction output consumed by the reference
// database builder.
type RatesFile struct {
	Volume   string               `json:"volume"`
	DSRCodes []internal.RateEntry `json:"dsr_codes"`
}

func LoadRates(path string) (*RatesFile, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f RatesFile
	if err := json.Unmarshal(blob, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func WriteRates(f RatesFile, path string) error {
	return writeJSON(path, f)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
