package domain

import (
	"regexp"
	"strings"
)

// RawSegment is an unvalidated waypoint pair attributed to a route
// identifier, straight out of the operative text.
type RawSegment struct {
	Route string `json:"route"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Segment is a validated route segment annotated with its altitude band.
type Segment struct {
	Route   string `json:"route"`
	From    string `json:"from"`
	To      string `json:"to"`
	Segment string `json:"segment"` // "FROM-TO" display key
	FL      string `json:"fl"`      // "FL000-FL230"
}

// Key returns the segment's identity for deduplication.
func (s Segment) Key() string {
	return s.Route + ":" + s.Segment
}

// routeChainRe matches an airway designator followed by a
// hyphen-delimited chain of fix-like tokens, e.g.
// "A909 KEKAL-BODBA-ABDAN" or "UW75 AZBUL-SELVI". Designators are a
// one or two letter prefix plus digits (the U prefix marks the upper
// airway variant); chains carry two or three fixes of at least three
// characters each.
var routeChainRe = regexp.MustCompile(`\b(U?[A-Z]\d{1,4}|[A-Z]{2}\d{1,3})\s+([A-Z][A-Z0-9]{2,9}(?:-[A-Z0-9]{3,10}){1,2})\b`)

// ExtractRawSegments pulls raw (route, from, to) triples out of
// operative text: one RawSegment per adjacent pair in each matched fix
// chain. Matches are kept in document order and not deduplicated here.
func ExtractRawSegments(operative string) []RawSegment {
	if operative == "" {
		return nil
	}
	text := strings.ToUpper(operative)

	var out []RawSegment
	for _, m := range routeChainRe.FindAllStringSubmatch(text, -1) {
		route := m[1]
		fixes := strings.Split(m[2], "-")
		for i := 0; i+1 < len(fixes); i++ {
			out = append(out, RawSegment{
				Route: route,
				From:  strings.TrimSpace(fixes[i]),
				To:    strings.TrimSpace(fixes[i+1]),
			})
		}
	}
	return out
}

// endpointStoplist holds structural tokens that the chain pattern can
// pick up as false fix names.
var endpointStoplist = map[string]struct{}{
	"SFC": {}, "TO": {}, "AND": {}, "WI": {}, "WITHIN": {},
}

// suspiciousEndpoint reports whether a fix name needs repair before it
// can be trusted: empty, out of length bounds, non-alphanumeric,
// not letter-initial, or a structural token.
func suspiciousEndpoint(fix string) bool {
	if fix == "" {
		return true
	}
	if len(fix) < 3 || len(fix) > 7 {
		return true
	}
	for _, r := range fix {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return true
		}
	}
	if fix[0] < 'A' || fix[0] > 'Z' {
		return true
	}
	_, stopped := endpointStoplist[fix]
	return stopped
}

// repairEndpoint runs the suspicious-endpoint pipeline: learned
// correction lookup first, then full fix validation. Returns "" when
// the endpoint cannot be recovered.
func repairEndpoint(fix string, mem CorrectionSource) string {
	if !suspiciousEndpoint(fix) {
		return fix
	}
	if mem != nil {
		if corr, ok := mem.LookupCorrection(fix); ok && !suspiciousEndpoint(corr) {
			return corr
		}
	}
	// A stoplist token like "AND" passes the shape check; it must not
	// come back as its own repair.
	if fixed := ValidateFix(fix, mem); fixed != "" && !suspiciousEndpoint(fixed) {
		return fixed
	}
	return ""
}

// BuildSegments combines raw segments with the resolved altitude band
// into final segment records. Suspicious endpoints are repaired via
// the corrective memory and the fix validator; segments with an
// unrecoverable endpoint are dropped. Survivors are deduplicated by
// route:segment key, first occurrence wins, order preserved.
func BuildSegments(raws []RawSegment, band AltitudeBand, mem CorrectionSource) []Segment {
	fl := band.String()
	out := make([]Segment, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		route := strings.ToUpper(strings.TrimSpace(raw.Route))
		from := repairEndpoint(strings.ToUpper(strings.TrimSpace(raw.From)), mem)
		to := repairEndpoint(strings.ToUpper(strings.TrimSpace(raw.To)), mem)
		if from == "" || to == "" {
			continue
		}

		seg := Segment{
			Route:   route,
			From:    from,
			To:      to,
			Segment: from + "-" + to,
			FL:      fl,
		}
		if _, dup := seen[seg.Key()]; dup {
			continue
		}
		seen[seg.Key()] = struct{}{}
		out = append(out, seg)
	}
	return out
}
