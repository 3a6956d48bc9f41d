package memory

import (
	"math"

	"github.com/flightpath-labs/notam-interp/internal/domain"
)

// FindSimilar retrieves the stored interpretation of the entry most
// similar to message, using the blended operational-core/full-message
// token similarity. Entries below the eligibility threshold are
// ignored; exact score ties break toward the most recent timestamp.
// Used as the fallback when deterministic extraction yields nothing.
func (s *Store) FindSimilar(message string) (Interpretation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best      *Entry
		bestScore float64
	)
	for i := range s.doc.Entries {
		entry := &s.doc.Entries[i]
		score := domain.BlendedSimilarity(message, entry.Message)
		if score < domain.SimilarityThreshold {
			continue
		}
		switch {
		case best == nil, score > bestScore:
			best = entry
			bestScore = score
		case math.Abs(score-bestScore) < 1e-9 && entry.Timestamp > best.Timestamp:
			// RFC 3339 UTC timestamps sort lexically.
			best = entry
		}
	}

	if best == nil {
		return Interpretation{}, false
	}
	return best.Interpretation, true
}
