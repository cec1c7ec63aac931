package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"estimatex/internal"
)

// Report is the structured matching output the presentation layer consumes.
// Field names are a stable contract.
type Report struct {
	Project      string                 `json:"project"`
	SourceFiles  ReportSources          `json:"source_files"`
	Summary      internal.MatchSummary  `json:"summary"`
	MatchedItems []internal.MatchedItem `json:"matched_items"`
}

type ReportSources struct {
	Items         string `json:"items"`
	RatesDatabase string `json:"rates_database"`
}

func BuildReport(project string, sources ReportSources, matched []internal.MatchedItem) Report {
	return Report{
		Project:      project,
		SourceFiles:  sources,
		Summary:      Summarize(matched),
		MatchedItems: matched,
	}
}

func WriteReport(r Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	blob, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
