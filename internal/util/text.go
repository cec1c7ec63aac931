package util

import (
	"regexp"
	"strings"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
	reSpaces   = regexp.MustCompile(`\s+`)
	rePunct    = regexp.MustCompile(`[^\w\s]`)
)

// NormalizeText lowercases, strips everything but alphanumerics and
// whitespace, and collapses whitespace runs. Both similarity operands go
// through this before scoring.
func NormalizeText(input string) string {
	s := strings.ToLower(input)
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Similarity scores two description strings in [0, 1] as a weighted blend of
// a character-level sequence ratio (70%) and token-set Jaccard overlap (30%).
// Either input empty returns 0.0; this includes both empty, since the token
// sets are vacuous and the sequence ratio is undefined on zero length.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	na := NormalizeText(a)
	nb := NormalizeText(b)
	if na == "" || nb == "" {
		return 0.0
	}

	seq := sequenceRatio(na, nb)

	wordsA := tokenSet(na)
	wordsB := tokenSet(nb)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return seq
	}

	inter := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			inter++
		}
	}
	union := len(wordsA) + len(wordsB) - inter
	jaccard := float64(inter) / float64(union)

	return seq*0.7 + jaccard*0.3
}

// sequenceRatio is 2*LCS(a,b) / (len(a)+len(b)) over runes: 1.0 for
// identical strings, 0.0 when no common subsequence exists.
func sequenceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return float64(2*lcs) / float64(len(ra)+len(rb))
}

func tokenSet(normalized string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(normalized) {
		out[w] = struct{}{}
	}
	return out
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "of": {}, "in": {}, "to": {}, "for": {},
	"with": {}, "on": {}, "at": {}, "from": {}, "by": {}, "as": {}, "is": {},
	"are": {}, "a": {}, "an": {},
}

// Keywords tokenizes a description for secondary search: lowercase, strip
// punctuation, drop stop words and tokens of length <= 2.
func Keywords(description string) []string {
	text := strings.ToLower(description)
	text = rePunct.ReplaceAllString(text, " ")

	var out []string
	for _, w := range strings.Fields(text) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
