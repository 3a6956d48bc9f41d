package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flightpath-labs/notam-interp/internal/domain"
	"github.com/flightpath-labs/notam-interp/internal/memory"
	"github.com/flightpath-labs/notam-interp/internal/observability"
	"github.com/jonboulle/clockwork"
)

// learnThreshold is the extractor confidence at or above which an
// interpretation is written back to the memory store for future
// similarity retrieval and fix correction.
const learnThreshold = 0.85

// Interpretation is the full pipeline output for one message.
type Interpretation struct {
	Text        string                    `json:"text"`
	Segments    []domain.Segment          `json:"segments"`
	Confidence  float64                   `json:"confidence"`
	Source      string                    `json:"source"`
	Merged      bool                      `json:"merged"`
	Band        *domain.AltitudeBand      `json:"band,omitempty"`
	Sections    map[domain.Section]string `json:"sections,omitempty"`
	ProcessedAt time.Time                 `json:"processed_at"`
}

// Key returns a stable partitioning key for the interpretation: the
// qualifier line when the message had one, otherwise the first segment
// key, otherwise empty.
func (r Interpretation) Key() string {
	if q := r.Sections[domain.SectionQualifier]; q != "" {
		return q
	}
	if len(r.Segments) > 0 {
		return r.Segments[0].Key()
	}
	return ""
}

// Interpreter runs the deterministic extraction pipeline and the
// soft-merge arbitration, backed by the corrective memory.
type Interpreter struct {
	store       *memory.Store
	corrections domain.CorrectionSource
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// NewInterpreter wires the pipeline. corrections is normally the store
// itself or a cache decorator around it.
func NewInterpreter(store *memory.Store, corrections domain.CorrectionSource, logger *slog.Logger, metrics *observability.Metrics) *Interpreter {
	return &Interpreter{
		store:       store,
		corrections: corrections,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
}

// SetClock swaps the interpreter's time source, for tests.
func (i *Interpreter) SetClock(c clockwork.Clock) {
	i.clock = c
}

// Interpret runs the full pipeline on one raw NOTAM: normalize, split,
// resolve the altitude band, extract and build segments, score, fall
// back to similarity retrieval when extraction yields nothing, then
// soft-merge with the external candidate. High-confidence results are
// written back to memory. Interpret never fails: every failure mode
// degrades to a lower-confidence or empty result.
func (i *Interpreter) Interpret(raw string, candidate domain.Candidate) Interpretation {
	now := i.clock.Now().UTC()

	if strings.TrimSpace(raw) == "" {
		i.metrics.Interpretations.WithLabelValues("error").Inc()
		return Interpretation{
			Text:        "No input provided",
			Segments:    []domain.Segment{},
			Confidence:  0,
			Source:      "error",
			ProcessedAt: now,
		}
	}

	msg := domain.ParseMessage(raw)
	band := domain.ResolveAltitudeBand(msg)
	rawSegments := domain.ExtractRawSegments(msg.Operative())
	segments := domain.BuildSegments(rawSegments, band, i.corrections)
	confidence := domain.Score(segments, band)
	i.metrics.Confidence.Observe(confidence)

	// Extraction miss: a prior interpretation of a near-identical
	// message beats an empty result.
	if len(segments) == 0 {
		if prior, ok := i.store.FindSimilar(msg.Normalized); ok {
			i.metrics.MemoryRetrievals.WithLabelValues("hit").Inc()
			i.metrics.Interpretations.WithLabelValues("memory").Inc()
			return Interpretation{
				Text:        prior.Text,
				Segments:    nonNil(prior.Segments),
				Confidence:  domain.SimilarityThreshold,
				Source:      "memory",
				Band:        &band,
				Sections:    msg.Sections,
				ProcessedAt: now,
			}
		}
		i.metrics.MemoryRetrievals.WithLabelValues("miss").Inc()
	}

	merged := domain.SoftMerge(domain.ParserResult{
		Text:       formatParserText(segments),
		Segments:   segments,
		Confidence: confidence,
	}, candidate, i.corrections)

	i.metrics.Interpretations.WithLabelValues(sourceLabel(merged.Source)).Inc()
	i.learn(msg.Normalized, merged, confidence)

	return Interpretation{
		Text:        merged.Text,
		Segments:    nonNil(merged.Segments),
		Confidence:  confidence,
		Source:      merged.Source,
		Merged:      merged.Merged,
		Band:        &band,
		Sections:    msg.Sections,
		ProcessedAt: now,
	}
}

// learn writes a high-confidence interpretation back to the memory
// store. Write failures are logged, never surfaced: losing a memory
// entry degrades future retrieval, not this result.
func (i *Interpreter) learn(normalized string, merged domain.MergeResult, confidence float64) {
	if confidence < learnThreshold || len(merged.Segments) == 0 {
		return
	}
	_, err := i.store.Append(normalized, memory.Interpretation{
		Text:     merged.Text,
		Segments: merged.Segments,
	})
	if err != nil {
		i.logger.Warn("memory write-back failed", "error", err)
		return
	}
	i.metrics.MemoryWrites.Inc()
	i.metrics.MemoryEntries.Set(float64(i.store.Len()))
}

// formatParserText renders the deterministic result as display text,
// one line per segment: "A909 KEKAL-BODBA FL000-FL230".
func formatParserText(segments []domain.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	lines := make([]string, len(segments))
	for n, s := range segments {
		lines[n] = fmt.Sprintf("%s %s %s", s.Route, s.Segment, s.FL)
	}
	return strings.Join(lines, "\n")
}

// sourceLabel collapses per-provider soft-merge tags into one metric
// label to keep cardinality bounded.
func sourceLabel(source string) string {
	if strings.HasPrefix(source, "soft-merge(") {
		return "soft-merge"
	}
	return source
}

// nonNil maps a nil slice to an empty one so JSON output always
// carries an array.
func nonNil(segments []domain.Segment) []domain.Segment {
	if segments == nil {
		return []domain.Segment{}
	}
	return segments
}
