package refdb

import (
	"fmt"
	"sort"
)

// MergeSource names one category database to fold into a master table.
type MergeSource struct {
	Category string
	Path     string
}

// MergeReport summarizes one merge run. Collisions are counted and reported,
// never fatal: the first source to claim a (code, category) key wins.
type MergeReport struct {
	Total      int
	ByCategory map[string]int
	Collisions int
}

// Merge combines per-category databases into one master database. Within a
// single source, duplicate codes (different volumes) are preserved; across
// sources, a (code, category) pair already claimed by an earlier source is a
// collision and the later rows for it are skipped.
func Merge(sources []MergeSource, outPath string) (MergeReport, error) {
	report := MergeReport{ByCategory: map[string]int{}}

	out, err := Open(outPath)
	if err != nil {
		return report, err
	}
	defer out.Close()

	claimed := map[string]int{}

	for srcIdx, src := range sources {
		srcDB, err := OpenExisting(src.Path)
		if err != nil {
			return report, fmt.Errorf("merge source %s: %w", src.Category, err)
		}

		entries, err := srcDB.All()
		_ = srcDB.Close()
		if err != nil {
			return report, fmt.Errorf("merge source %s: %w", src.Category, err)
		}

		kept := entries[:0:0]
		for _, e := range entries {
			key := e.Code + "\x00" + src.Category
			owner, seen := claimed[key]
			if seen && owner != srcIdx {
				report.Collisions++
				continue
			}
			claimed[key] = srcIdx
			kept = append(kept, e)
		}

		n, err := out.InsertEntries(src.Category, kept)
		if err != nil {
			return report, fmt.Errorf("merge insert %s: %w", src.Category, err)
		}
		report.ByCategory[src.Category] += n
		report.Total += n
	}

	return report, nil
}

// Categories lists the report's categories in stable order for printing.
func (r MergeReport) Categories() []string {
	out := make([]string, 0, len(r.ByCategory))
	for cat := range r.ByCategory {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
