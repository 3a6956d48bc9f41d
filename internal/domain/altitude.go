package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Flight-level sentinels for the "surface" and "unlimited" altitude words.
const (
	FLSurface   = 0
	FLUnlimited = 999
)

// feetPerMeter is the WGS-84 conversion factor used throughout ICAO docs.
const feetPerMeter = 3.28084

// AltitudeBand is the resolved lower/upper flight-level pair for a
// message. UpperFinal is UpperRaw clamped to the qualifier-line upper
// bound when that bound is smaller; Adjusted records whether the clamp
// fired.
type AltitudeBand struct {
	Lower          int    `json:"fl_lower"`
	UpperRaw       int    `json:"fl_upper_raw"`
	UpperFinal     int    `json:"fl_upper_final"`
	QualifierUpper *int   `json:"qualifier_upper,omitempty"`
	Adjusted       bool   `json:"adjusted"`
	Reason         string `json:"reason,omitempty"`
}

// String formats the band as a display string, e.g. "FL000-FL230".
func (b AltitudeBand) String() string {
	return fmt.Sprintf("FL%03d-FL%03d", b.Lower, b.UpperFinal)
}

var (
	// inlineBandRe matches explicit altitude phrases in operative text,
	// either "TO" or hyphen delimited: "SFC TO FL230", "FL100-FL200",
	// "2500M-7500M".
	inlineBandRe = regexp.MustCompile(`(SFC|SURFACE|GND|FL\d{2,3}|\d{2,5} ?FT|\d{2,5} ?M)\s*(?:TO|-)\s*(FL\d{2,3}|\d{2,5} ?FT|\d{2,5} ?M|UNL|UNLIMITED)`)

	feetTokenRe  = regexp.MustCompile(`(\d{2,5}) ?FT`)
	meterTokenRe = regexp.MustCompile(`(\d{2,5}) ?M\b`)
	flTokenRe    = regexp.MustCompile(`FL(\d{2,3})`)

	// qualifierFLRe pulls the coarse flight-level pair out of the Q line:
	// ".../IV/NBO/E/000/150/" -> lower 000, upper 150. The trailing slash
	// is optional; some producers omit it.
	qualifierFLRe = regexp.MustCompile(`/E/(\d{3})/(\d{3})/?`)
)

// metersToFL converts meters to a flight level, rounding up. Rounding
// up is the conservative policy for restriction ceilings and is applied
// uniformly to every conversion path.
func metersToFL(m int) int {
	return feetToFL(float64(m) * feetPerMeter)
}

func feetToFL(ft float64) int {
	return int(math.Ceil(ft / 100))
}

// parseAltToken maps one altitude token to a flight level. Accepted
// forms: SFC/SURFACE/GND, UNL/UNLIMITED, "NNN FT", "NNN M", "FLnnn".
func parseAltToken(tok string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(tok))
	switch {
	case t == "":
		return 0, false
	case strings.Contains(t, "UNL"):
		return FLUnlimited, true
	case strings.Contains(t, "SFC"), strings.Contains(t, "SURFACE"), t == "GND":
		return FLSurface, true
	}
	if m := feetTokenRe.FindStringSubmatch(t); m != nil {
		ft, _ := strconv.Atoi(m[1])
		return feetToFL(float64(ft)), true
	}
	if m := meterTokenRe.FindStringSubmatch(t); m != nil {
		mv, _ := strconv.Atoi(m[1])
		return metersToFL(mv), true
	}
	if m := flTokenRe.FindStringSubmatch(t); m != nil {
		fl, _ := strconv.Atoi(m[1])
		return fl, true
	}
	return 0, false
}

// extractInlineBand searches operative text for an explicit altitude
// phrase. Returns nil bounds when no phrase is present.
func extractInlineBand(operative string) (lower, upper *int) {
	m := inlineBandRe.FindStringSubmatch(operative)
	if m == nil {
		return nil, nil
	}
	if v, ok := parseAltToken(m[1]); ok {
		lower = &v
	}
	if v, ok := parseAltToken(m[2]); ok {
		upper = &v
	}
	return lower, upper
}

// parseLimitField parses an F or G section value. Accepted forms:
// surface/unlimited words, flight-level code ("FL230"), meter value
// ("4500M"), or raw digits ("230", read directly as a flight level).
func parseLimitField(field string) *int {
	f := strings.ToUpper(strings.TrimSpace(field))
	if f == "" {
		return nil
	}
	if strings.Contains(f, "UNL") {
		v := FLUnlimited
		return &v
	}
	if strings.Contains(f, "SFC") || strings.Contains(f, "GND") {
		v := FLSurface
		return &v
	}
	if m := flTokenRe.FindStringSubmatch(f); m != nil {
		v, _ := strconv.Atoi(m[1])
		return &v
	}
	if m := meterTokenRe.FindStringSubmatch(f); m != nil {
		mv, _ := strconv.Atoi(m[1])
		v := metersToFL(mv)
		return &v
	}
	if isDigits(f) {
		v, _ := strconv.Atoi(f)
		return &v
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// extractQualifierBand reads the lower/upper flight-level pair from the
// qualifier (Q) section.
func extractQualifierBand(qualifier string) (lower, upper *int) {
	m := qualifierFLRe.FindStringSubmatch(qualifier)
	if m == nil {
		return nil, nil
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	return &lo, &hi
}

// ResolveAltitudeBand extracts the altitude band for a message. The
// three sources are tried in strict priority order — inline operative
// text, then the F/G limit sections, then the qualifier line — with
// defaults of surface and unlimited. The qualifier upper bound is then
// applied as an authoritative ceiling regardless of which source won:
// a more specific upper bound above the Q-line ceiling is clamped down
// and the band marked adjusted.
func ResolveAltitudeBand(msg Message) AltitudeBand {
	inLower, inUpper := extractInlineBand(msg.Operative())
	fLower := parseLimitField(msg.Sections[SectionLowerLimit])
	gUpper := parseLimitField(msg.Sections[SectionUpperLimit])
	qLower, qUpper := extractQualifierBand(msg.Sections[SectionQualifier])

	lower := firstBound(FLSurface, inLower, fLower, qLower)
	upper := firstBound(FLUnlimited, inUpper, gUpper, qUpper)

	band := AltitudeBand{
		Lower:          lower,
		UpperRaw:       upper,
		UpperFinal:     upper,
		QualifierUpper: qUpper,
	}
	if qUpper != nil && upper > *qUpper {
		band.UpperFinal = *qUpper
		band.Adjusted = true
		band.Reason = "clamped-upper-to-qualifier"
	}
	return band
}

// firstBound returns the first non-nil bound, or def.
func firstBound(def int, vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}
