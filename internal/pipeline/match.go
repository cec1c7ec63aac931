// Package pipeline wires extraction output to the reference table: matching
// and pricing, report generation, and the document/table ingestion paths.
package pipeline

import (
	"sort"
	"strings"

	"estimatex/internal"
	"estimatex/internal/config"
	"estimatex/internal/util"
)

// Reference is the lookup contract the matcher consumes; both the SQLite
// store and the in-memory table satisfy it. Lookup returns every entry for a
// clean code in extraction order, or an empty slice when the code is absent.
type Reference interface {
	Lookup(code string) ([]internal.RateEntry, error)
}

const notFoundDescription = "DSR code not found in reference files"

type Matcher struct {
	cfg config.Config
	ref Reference
}

func NewMatcher(cfg config.Config, ref Reference) *Matcher {
	return &Matcher{cfg: cfg, ref: ref}
}

// MatchAll resolves every input item. Per-item misses are data, not errors;
// only a failing reference lookup (broken store) aborts the run.
func (m *Matcher) MatchAll(items []internal.InputItem) ([]internal.MatchedItem, error) {
	out := make([]internal.MatchedItem, 0, len(items))
	for _, item := range items {
		matched, err := m.Match(item)
		if err != nil {
			return nil, err
		}
		out = append(out, matched)
	}
	return out, nil
}

// Match resolves one item against the reference table. The clean code is the
// only lookup key: an absent code is always not_found, never reassigned to a
// different code on description similarity. Input codes are authoritative
// even when local descriptions are noisy parse artifacts.
func (m *Matcher) Match(item internal.InputItem) (internal.MatchedItem, error) {
	matched := internal.MatchedItem{InputItem: item}

	entries, err := m.ref.Lookup(item.CleanCode)
	if err != nil {
		return matched, err
	}

	if len(entries) == 0 {
		matched.MatchType = internal.MatchNotFound
		matched.DSRDescription = notFoundDescription
		matched.SimilarityScore = 0.0
		return matched, nil
	}

	best, score := m.pickCandidate(item.Description, entries)

	matched.Rate = util.FloatPtr(best.Rate)
	matched.DSRDescription = best.Description
	matched.DSRUnit = best.Unit
	matched.DSRVolume = best.Volume
	matched.DSRPage = util.IntPtr(best.Page)
	matched.SimilarityScore = score
	matched.DuplicateCount = len(entries)

	if score >= m.cfg.SimilarityThreshold {
		matched.MatchType = internal.MatchExact
	} else {
		// Code matched; only the description is suspect. Fields are
		// still copied so a reviewer can see what was found.
		matched.MatchType = internal.MatchMismatch
	}

	matched.Amount = computeAmount(item.Quantity, matched.Rate)
	return matched, nil
}

// pickCandidate orders duplicate entries deterministically (preferred volume
// labels first, then ascending rate) and disambiguates within the top
// preference tier by description similarity.
func (m *Matcher) pickCandidate(description string, entries []internal.RateEntry) (internal.RateEntry, float64) {
	ordered := orderCandidates(entries, m.cfg.PreferVolumeLabels)

	if len(ordered) == 1 {
		return ordered[0], util.Similarity(description, ordered[0].Description)
	}

	tier := preferenceTier(ordered, m.cfg.PreferVolumeLabels)
	best := tier[0]
	bestScore := util.Similarity(description, best.Description)
	for _, candidate := range tier[1:] {
		score := util.Similarity(description, candidate.Description)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore
}

// orderCandidates sorts stably so full ties keep extraction order.
func orderCandidates(entries []internal.RateEntry, preferLabels []string) []internal.RateEntry {
	out := make([]internal.RateEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		pi := volumeRank(out[i].Volume, preferLabels)
		pj := volumeRank(out[j].Volume, preferLabels)
		if pi != pj {
			return pi < pj
		}
		return out[i].Rate < out[j].Rate
	})
	return out
}

// preferenceTier returns the leading run of entries sharing the best volume
// rank.
func preferenceTier(ordered []internal.RateEntry, preferLabels []string) []internal.RateEntry {
	rank := volumeRank(ordered[0].Volume, preferLabels)
	end := 1
	for end < len(ordered) && volumeRank(ordered[end].Volume, preferLabels) == rank {
		end++
	}
	return ordered[:end]
}

// volumeRank is 0 for labels carrying a preferred marker ("II", "2" by
// default), 1 otherwise. The markers are configuration, not hard-coded:
// volume labels are free text and unexpected formats should be steerable.
func volumeRank(volume string, preferLabels []string) int {
	for _, label := range preferLabels {
		if strings.Contains(volume, label) {
			return 0
		}
	}
	return 1
}

// computeAmount is quantity × rate when both are usable. A missing or zero
// quantity, or a missing rate, yields no amount rather than an error.
func computeAmount(quantity, rate *float64) *float64 {
	if quantity == nil || rate == nil || *quantity == 0 {
		return nil
	}
	return util.FloatPtr(*quantity * *rate)
}

// Summarize folds a matched list into the run-level summary.
func Summarize(matched []internal.MatchedItem) internal.MatchSummary {
	summary := internal.MatchSummary{TotalItems: len(matched)}
	for _, item := range matched {
		switch item.MatchType {
		case internal.MatchExact:
			summary.ExactMatches++
		case internal.MatchMismatch:
			summary.DescriptionMismatch++
		case internal.MatchNotFound:
			summary.NotFound++
		}
		if item.Amount != nil {
			summary.TotalEstimatedAmount += *item.Amount
		}
	}
	return summary
}
