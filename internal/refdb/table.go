package refdb

import "estimatex/internal"

// Table is the in-memory reference lookup used when matching directly
// against freshly extracted rates, without a database file. Entry lists keep
// insertion order, same as the store.
type Table struct {
	byCode map[string][]internal.RateEntry
	total  int
}

func BuildTable(entries []internal.RateEntry) *Table {
	t := &Table{byCode: map[string][]internal.RateEntry{}}
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

func (t *Table) Add(e internal.RateEntry) {
	t.byCode[e.Code] = append(t.byCode[e.Code], e)
	t.total++
}

func (t *Table) Lookup(code string) ([]internal.RateEntry, error) {
	return t.byCode[code], nil
}

func (t *Table) Count() int {
	return t.total
}

// Stats folds the whole table, matching the store's aggregate shape.
func (t *Table) Stats() internal.RateStats {
	stats := internal.RateStats{TotalCodes: t.total, ByCategory: map[string]int{}}
	first := true
	var sum float64
	for _, entries := range t.byCode {
		for _, e := range entries {
			if first || e.Rate < stats.MinRate {
				stats.MinRate = e.Rate
			}
			if first || e.Rate > stats.MaxRate {
				stats.MaxRate = e.Rate
			}
			first = false
			sum += e.Rate
			cat := e.Category
			if cat == "" {
				cat = "civil"
			}
			stats.ByCategory[cat]++
		}
	}
	if t.total > 0 {
		stats.AvgRate = sum / float64(t.total)
	}
	return stats
}
