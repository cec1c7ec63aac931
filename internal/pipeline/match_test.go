package pipeline

import (
	"math"
	"testing"

	"estimatex/internal"
	"estimatex/internal/config"
	"estimatex/internal/refdb"
	"estimatex/internal/util"
)

func testConfig() config.Config {
	return config.Config{
		SimilarityThreshold: 0.3,
		PreferVolumeLabels:  []string{"II", "2"},
	}
}

func entry(code, description, volume string, rate float64) internal.RateEntry {
	return internal.RateEntry{
		Code:        code,
		Description: description,
		Unit:        "cum",
		Rate:        rate,
		Volume:      volume,
		Page:        12,
	}
}

func item(code, description string, qty *float64) internal.InputItem {
	return internal.InputItem{
		ItemNumber:  1,
		Code:        "DSR-2023-" + code,
		CleanCode:   code,
		Description: description,
		Unit:        "cum",
		Quantity:    qty,
	}
}

func TestMatchExact(t *testing.T) {
	desc := "Excavation in ordinary soil including disposal"
	ref := refdb.BuildTable([]internal.RateEntry{entry("15.12.2", desc, "Vol I", 150.50)})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("15.12.2", desc, util.FloatPtr(100)))
	if err != nil {
		t.Fatal(err)
	}

	if got.MatchType != internal.MatchExact {
		t.Fatalf("match type = %q", got.MatchType)
	}
	if got.SimilarityScore != 1.0 {
		t.Fatalf("similarity = %v", got.SimilarityScore)
	}
	if got.Rate == nil || *got.Rate != 150.50 {
		t.Fatalf("rate = %v", got.Rate)
	}
	if got.Amount == nil || *got.Amount != 15050.0 {
		t.Fatalf("amount = %v", got.Amount)
	}
	if got.DSRDescription != desc || got.DSRUnit != "cum" || got.DSRVolume != "Vol I" {
		t.Fatalf("copied fields = %q/%q/%q", got.DSRDescription, got.DSRUnit, got.DSRVolume)
	}
	if got.DSRPage == nil || *got.DSRPage != 12 {
		t.Fatalf("page = %v", got.DSRPage)
	}
	if got.DuplicateCount != 1 {
		t.Fatalf("duplicate count = %d", got.DuplicateCount)
	}
}

func TestMatchDescriptionMismatch(t *testing.T) {
	ref := refdb.BuildTable([]internal.RateEntry{
		entry("15.12.2", "Excavation in ordinary soil including disposal", "Vol I", 150.50),
	})
	m := NewMatcher(testConfig(), ref)

	// A garbled parse artifact: the code still wins, the description flags
	// the record for review.
	got, err := m.Match(item("15.12.2", "zzqj kk vw", util.FloatPtr(10)))
	if err != nil {
		t.Fatal(err)
	}

	if got.MatchType != internal.MatchMismatch {
		t.Fatalf("match type = %q", got.MatchType)
	}
	if got.Rate == nil || *got.Rate != 150.50 {
		t.Fatalf("rate must still be copied on mismatch: %v", got.Rate)
	}
	if got.Amount == nil || *got.Amount != 1505.0 {
		t.Fatalf("amount = %v", got.Amount)
	}
}

func TestMatchNotFound(t *testing.T) {
	// The table holds a different code with the identical description; the
	// matcher must not reassign by similarity.
	desc := "Excavation in ordinary soil including disposal"
	ref := refdb.BuildTable([]internal.RateEntry{entry("15.12.2", desc, "Vol I", 150.50)})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("99.99", desc, util.FloatPtr(100)))
	if err != nil {
		t.Fatal(err)
	}

	if got.MatchType != internal.MatchNotFound {
		t.Fatalf("match type = %q", got.MatchType)
	}
	if got.Rate != nil || got.Amount != nil {
		t.Fatalf("rate/amount = %v/%v, want nil", got.Rate, got.Amount)
	}
	if got.SimilarityScore != 0.0 {
		t.Fatalf("similarity = %v", got.SimilarityScore)
	}
	if got.DSRDescription != "DSR code not found in reference files" {
		t.Fatalf("dsr description = %q", got.DSRDescription)
	}
}

func TestMatchPrefersVolumeII(t *testing.T) {
	desc := "Brickwork in cement mortar 1:4 in superstructure"
	ref := refdb.BuildTable([]internal.RateEntry{
		entry("5.1", desc, "Vol I", 100.00),
		entry("5.1", desc, "Vol II", 90.00),
	})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("5.1", desc, util.FloatPtr(1)))
	if err != nil {
		t.Fatal(err)
	}

	if got.DSRVolume != "Vol II" {
		t.Fatalf("volume = %q, want Vol II", got.DSRVolume)
	}
	if got.Rate == nil || *got.Rate != 90.00 {
		t.Fatalf("rate = %v", got.Rate)
	}
	if got.DuplicateCount != 2 {
		t.Fatalf("duplicate count = %d", got.DuplicateCount)
	}
}

func TestMatchDuplicatesTieBreakByRate(t *testing.T) {
	desc := "Brickwork in cement mortar 1:4 in superstructure"
	ref := refdb.BuildTable([]internal.RateEntry{
		entry("5.1", desc, "Vol II", 120.00),
		entry("5.1", desc, "Vol II", 90.00),
	})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("5.1", desc, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Rate == nil || *got.Rate != 90.00 {
		t.Fatalf("rate = %v, want the lower rate on a full tie", got.Rate)
	}
}

func TestMatchDisambiguatesWithinTierBySimilarity(t *testing.T) {
	ref := refdb.BuildTable([]internal.RateEntry{
		entry("5.1", "Demolishing brick work in mud mortar", "Vol II", 80.00),
		entry("5.1", "Brickwork in cement mortar 1:4 in superstructure", "Vol II", 140.00),
	})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("5.1", "Brickwork in cement mortar 1:4 in superstructure", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Rate == nil || *got.Rate != 140.00 {
		t.Fatalf("rate = %v, want the better-described candidate", got.Rate)
	}
	if got.SimilarityScore != 1.0 {
		t.Fatalf("similarity = %v", got.SimilarityScore)
	}
}

func TestMatchThresholdInclusive(t *testing.T) {
	refDesc := "Excavation in foundation trenches in ordinary soil"
	itemDesc := "Excavation in ordinary soil"
	score := util.Similarity(itemDesc, refDesc)
	if score <= 0.0 || score >= 1.0 {
		t.Fatalf("test needs a partial similarity, got %v", score)
	}

	ref := refdb.BuildTable([]internal.RateEntry{entry("2.6", refDesc, "Vol I", 200.00)})

	cfg := testConfig()
	cfg.SimilarityThreshold = score
	got, err := NewMatcher(cfg, ref).Match(item("2.6", itemDesc, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.MatchType != internal.MatchExact {
		t.Fatalf("score equal to threshold must match: %q at %v", got.MatchType, score)
	}

	cfg.SimilarityThreshold = math.Nextafter(score, 2)
	got, err = NewMatcher(cfg, ref).Match(item("2.6", itemDesc, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.MatchType != internal.MatchMismatch {
		t.Fatalf("score below threshold must mismatch: %q", got.MatchType)
	}
}

func TestMatchAmountNeedsQuantity(t *testing.T) {
	desc := "Excavation in ordinary soil including disposal"
	ref := refdb.BuildTable([]internal.RateEntry{entry("15.12.2", desc, "Vol I", 150.50)})
	m := NewMatcher(testConfig(), ref)

	got, err := m.Match(item("15.12.2", desc, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != nil {
		t.Fatalf("amount = %v, want nil without quantity", *got.Amount)
	}
	if got.MatchType != internal.MatchExact {
		t.Fatalf("match type = %q: a missing quantity is not a match failure", got.MatchType)
	}

	got, err = m.Match(item("15.12.2", desc, util.FloatPtr(0)))
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != nil {
		t.Fatalf("amount = %v, want nil for zero quantity", *got.Amount)
	}
}

func TestMatchAll(t *testing.T) {
	desc := "Excavation in ordinary soil including disposal"
	ref := refdb.BuildTable([]internal.RateEntry{entry("15.12.2", desc, "Vol I", 150.50)})
	m := NewMatcher(testConfig(), ref)

	matched, err := m.MatchAll([]internal.InputItem{
		item("15.12.2", desc, util.FloatPtr(2)),
		item("99.99", "Unknown work item description", nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 2 {
		t.Fatalf("got %d matched items, want 2", len(matched))
	}
	if matched[0].MatchType != internal.MatchExact || matched[1].MatchType != internal.MatchNotFound {
		t.Fatalf("match types = %q, %q", matched[0].MatchType, matched[1].MatchType)
	}
}

func TestSummarize(t *testing.T) {
	matched := []internal.MatchedItem{
		{MatchType: internal.MatchExact, Amount: util.FloatPtr(10)},
		{MatchType: internal.MatchExact, Amount: util.FloatPtr(20)},
		{MatchType: internal.MatchMismatch, Amount: util.FloatPtr(5)},
		{MatchType: internal.MatchNotFound},
	}

	s := Summarize(matched)
	if s.TotalItems != 4 || s.ExactMatches != 2 || s.DescriptionMismatch != 1 || s.NotFound != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.TotalEstimatedAmount != 35 {
		t.Fatalf("total amount = %v", s.TotalEstimatedAmount)
	}
}
