package internal

// MatchType classifies the outcome of matching one input item against the
// reference table. Downstream consumers key off these exact string values.
type MatchType string

const (
	MatchExact    MatchType = "exact_with_description_match"
	MatchMismatch MatchType = "code_match_but_description_mismatch"
	MatchNotFound MatchType = "not_found"
)

// RateSource tags which extraction path produced a RateEntry.
type RateSource string

const (
	SourceSimpleFormat RateSource = "simple_format"
	SourceEnhanced     RateSource = "enhanced_with_parent"
)

// RateEntry is one candidate price record for a DSR code. Multiple entries
// may share the same code (duplicates across volumes/editions); the list for
// a code preserves document scan order.
type RateEntry struct {
	Code        string     `json:"code"`
	Category    string     `json:"category,omitempty"`
	Chapter     string     `json:"chapter"`
	Section     string     `json:"section"`
	Description string     `json:"description"`
	Unit        string     `json:"unit"`
	Rate        float64    `json:"rate"`
	Volume      string     `json:"volume"`
	Page        int        `json:"page"`
	Source      RateSource `json:"source"`
	Keywords    []string   `json:"keywords,omitempty"`
}

// InputItem is one line item to be priced. Code keeps the raw extracted
// token (possibly year-wrapped, e.g. "DSR-2023-15.7.4"); CleanCode is the
// dotted-numeric lookup key ("15.7.4").
type InputItem struct {
	ItemNumber  int      `json:"item_number"`
	Code        string   `json:"code"`
	CleanCode   string   `json:"clean_code"`
	Chapter     string   `json:"chapter"`
	Section     string   `json:"section"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
	Quantity    *float64 `json:"quantity"`
	Keywords    []string `json:"keywords,omitempty"`
}

// MatchedItem is an InputItem enriched with the matcher's verdict. Rate and
// Amount stay nil when not resolvable; Amount = Quantity × Rate otherwise.
type MatchedItem struct {
	InputItem
	Rate            *float64  `json:"rate"`
	DSRDescription  string    `json:"dsr_description"`
	DSRUnit         string    `json:"dsr_unit"`
	DSRVolume       string    `json:"dsr_volume"`
	DSRPage         *int      `json:"dsr_page,omitempty"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchType       MatchType `json:"match_type"`
	DuplicateCount  int       `json:"duplicate_count,omitempty"`
	Amount          *float64  `json:"amount"`
}

// MatchSummary aggregates one matching run.
type MatchSummary struct {
	TotalItems           int     `json:"total_items"`
	ExactMatches         int     `json:"exact_matches"`
	DescriptionMismatch  int     `json:"code_match_description_mismatch"`
	NotFound             int     `json:"not_found"`
	TotalEstimatedAmount float64 `json:"total_estimated_amount"`
}

// RateStats holds aggregate statistics over a reference table.
type RateStats struct {
	TotalCodes int            `json:"total_codes"`
	MinRate    float64        `json:"min_rate"`
	MaxRate    float64        `json:"max_rate"`
	AvgRate    float64        `json:"avg_rate"`
	ByCategory map[string]int `json:"by_category,omitempty"`
}
