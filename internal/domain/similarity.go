package domain

import (
	"regexp"
	"strings"
)

// Weights and threshold for retrieval of a prior interpretation by
// token-set similarity. The operational core (operative text plus
// route tokens) dominates; the full message guards against matching
// unrelated NOTAMs that happen to share a route.
const (
	weightOperationalSim = 0.70
	weightFullSim        = 0.30

	// SimilarityThreshold is the minimum blended score for a memory
	// entry to be eligible as a retrieved interpretation.
	SimilarityThreshold = 0.75
)

var (
	nonAlnumRe = regexp.MustCompile(`[^A-Z0-9 ]`)

	// operativeSpanRe grabs the E-section span out of flat (already
	// normalized, possibly single-line) NOTAM text.
	operativeSpanRe = regexp.MustCompile(`E\)(.*?)(?:[A-Z]\)|$)`)

	// routeTokenRe matches short route-like tokens for the operational core.
	routeTokenRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,4}\b`)
)

// Tokenize upper-cases text, strips non-alphanumeric characters, and
// splits on whitespace.
func Tokenize(text string) []string {
	t := nonAlnumRe.ReplaceAllString(strings.ToUpper(text), " ")
	return strings.Fields(t)
}

// TokenSimilarity is the Jaccard index of the two token sets, 0 when
// either is empty.
func TokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aSet := make(map[string]struct{}, len(a))
	for _, t := range a {
		aSet[t] = struct{}{}
	}
	bSet := make(map[string]struct{}, len(b))
	for _, t := range b {
		bSet[t] = struct{}{}
	}

	inter := 0
	for t := range aSet {
		if _, ok := bSet[t]; ok {
			inter++
		}
	}
	union := len(aSet) + len(bSet) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OperationalCore reduces a message to its operative text plus
// route-like tokens, the part that actually identifies what the NOTAM
// restricts.
func OperationalCore(text string) string {
	t := strings.ToUpper(text)
	parts := make([]string, 0, 8)
	if m := operativeSpanRe.FindStringSubmatch(t); m != nil {
		parts = append(parts, m[1])
	}
	parts = append(parts, routeTokenRe.FindAllString(t, -1)...)
	return strings.Join(parts, " ")
}

// BlendedSimilarity scores candidate text against a query using the
// 0.70/0.30 operational-core / full-message blend.
func BlendedSimilarity(query, candidate string) float64 {
	opSim := TokenSimilarity(Tokenize(OperationalCore(query)), Tokenize(OperationalCore(candidate)))
	fullSim := TokenSimilarity(Tokenize(query), Tokenize(candidate))
	return weightOperationalSim*opSim + weightFullSim*fullSim
}
