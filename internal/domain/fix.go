package domain

import (
	"regexp"
	"strings"
)

// CorrectionSource provides learned fix corrections from prior
// interpretations. Implemented by the memory store; injected so the
// domain stays free of storage concerns. A nil CorrectionSource is
// valid and never matches.
type CorrectionSource interface {
	// LookupCorrection finds a correction for code by exact key match,
	// then by character-level similarity over stored correction keys.
	LookupCorrection(code string) (string, bool)

	// CorrectionByFixCode finds a correction for code by exact match on
	// the learned-fixes field, then by presence inside any stored
	// interpretation, then by substring match against a stored raw
	// message.
	CorrectionByFixCode(code string) (string, bool)
}

var (
	waypointRe  = regexp.MustCompile(`^[A-Z]{3,5}$`)
	navaidRe    = regexp.MustCompile(`^[A-Z]{2,3}(VOR|NDB|DME)?$`)
	aerodromeRe = regexp.MustCompile(`^[A-Z]{4}$`)

	// fixGarbageReplacer strips quote and parenthesis characters that
	// wrap fix names in free-form operative text.
	fixGarbageReplacer = strings.NewReplacer(`'`, "", `"`, "", "(", "", ")", "", " ", "")
)

// navaidSuffixes are facility-type tags sometimes glued onto an
// identifier, e.g. "ANKVOR" for the ANK VOR.
var navaidSuffixes = []string{"VOR", "NDB", "DME"}

// NormalizeFix strips quotes, parentheses, and spaces and upper-cases
// the identifier.
func NormalizeFix(code string) string {
	return strings.ToUpper(fixGarbageReplacer.Replace(strings.TrimSpace(code)))
}

// IsValidFix reports whether code has one of the accepted identifier
// shapes: 3–5 letter waypoint, 2–3 letter navaid with optional
// VOR/NDB/DME suffix, or 4-letter aerodrome code.
func IsValidFix(code string) bool {
	if code == "" {
		return false
	}
	c := strings.ToUpper(strings.TrimSpace(code))
	return waypointRe.MatchString(c) || navaidRe.MatchString(c) || aerodromeRe.MatchString(c)
}

// ValidateFix validates and, where possible, corrects a fix
// identifier. Pipeline: normalize, shape-check, memory correction,
// suffix-strip heuristic. Returns "" when the identifier cannot be
// recovered; callers drop segments with unrecoverable endpoints.
func ValidateFix(code string, mem CorrectionSource) string {
	c := NormalizeFix(code)
	if IsValidFix(c) {
		return c
	}

	if mem != nil {
		if corr, ok := mem.CorrectionByFixCode(c); ok && IsValidFix(corr) {
			return NormalizeFix(corr)
		}
	}

	// Some messages glue a facility-type tag onto an otherwise valid
	// identifier ("KONYAVOR"). Stripping the tag is the last resort.
	for _, suffix := range navaidSuffixes {
		if strings.HasSuffix(c, suffix) {
			cut := strings.TrimSuffix(c, suffix)
			if IsValidFix(cut) {
				return cut
			}
		}
	}

	return ""
}
