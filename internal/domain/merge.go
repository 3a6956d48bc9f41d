package domain

// StrongParserThreshold is the deterministic-extractor confidence at or
// above which the soft-merge resolver trusts the extractor outright and
// never dilutes its output with an external candidate.
const StrongParserThreshold = 0.75

// ParserResult is the deterministic extractor's output entering
// arbitration.
type ParserResult struct {
	Text       string    `json:"text"`
	Segments   []Segment `json:"segments"`
	Confidence float64   `json:"confidence"`
}

// Candidate is an externally produced interpretation (typically from an
// AI provider), received already resolved as a plain value. A zero
// Candidate means no external interpretation was available.
type Candidate struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Source   string    `json:"source"`
}

// MergeResult is the arbitrated interpretation.
type MergeResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Source   string    `json:"source"`
	Merged   bool      `json:"merged"`
}

// cleanCandidateSegments keeps only candidate segments whose endpoints
// survive fix validation, rebuilding the display key from the validated
// names.
func cleanCandidateSegments(segs []Segment, mem CorrectionSource) []Segment {
	safe := make([]Segment, 0, len(segs))
	for _, s := range segs {
		from := ValidateFix(s.From, mem)
		to := ValidateFix(s.To, mem)
		if from == "" || to == "" {
			continue
		}
		s.From = from
		s.To = to
		s.Segment = from + "-" + to
		safe = append(safe, s)
	}
	return safe
}

// SoftMerge arbitrates between the deterministic extractor result and
// an external candidate. A strong extractor result (confidence ≥
// StrongParserThreshold) is returned verbatim. Otherwise the
// candidate's segments are validated, unioned with the extractor's
// (extractor first, so it wins key collisions), and the candidate's
// text is adopted. A missing or fully rejected candidate degenerates
// to the extractor's own segments. The memory source is used only for
// endpoint validation; snapshot-based reinforcement is not wired yet.
func SoftMerge(parser ParserResult, candidate Candidate, mem CorrectionSource) MergeResult {
	if parser.Confidence >= StrongParserThreshold {
		return MergeResult{
			Text:     parser.Text,
			Segments: parser.Segments,
			Source:   "parser-strong",
			Merged:   false,
		}
	}

	merged := make([]Segment, 0, len(parser.Segments)+len(candidate.Segments))
	seen := make(map[string]struct{})
	for _, s := range parser.Segments {
		if _, dup := seen[s.Key()]; dup {
			continue
		}
		seen[s.Key()] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range cleanCandidateSegments(candidate.Segments, mem) {
		if _, dup := seen[s.Key()]; dup {
			continue
		}
		seen[s.Key()] = struct{}{}
		merged = append(merged, s)
	}

	source := candidate.Source
	if source == "" {
		source = "ai"
	}
	text := candidate.Text
	if text == "" {
		text = parser.Text
	}

	return MergeResult{
		Text:     text,
		Segments: merged,
		Source:   "soft-merge(ai:" + source + ")",
		Merged:   true,
	}
}
