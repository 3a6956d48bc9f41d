package domain

import (
	"regexp"
	"strings"
)

// Section identifies one of the fixed NOTAM section labels.
type Section string

// The fixed section labels, in document order.
const (
	SectionQualifier     Section = "Q" // qualifier line
	SectionLocation      Section = "A" // affected FIR or aerodrome
	SectionValidityStart Section = "B"
	SectionValidityEnd   Section = "C"
	SectionSchedule      Section = "D"
	SectionOperative     Section = "E" // operative text
	SectionLowerLimit    Section = "F"
	SectionUpperLimit    Section = "G"
)

// SectionOrder lists every section label in document order. Split
// results always contain all of these as keys.
var SectionOrder = []Section{
	SectionQualifier,
	SectionLocation,
	SectionValidityStart,
	SectionValidityEnd,
	SectionSchedule,
	SectionOperative,
	SectionLowerLimit,
	SectionUpperLimit,
}

// Message is a NOTAM after normalization and section splitting.
type Message struct {
	Raw        string             `json:"raw"`
	Normalized string             `json:"normalized"`
	Sections   map[Section]string `json:"sections"`
}

// Operative returns the E-section text.
func (m Message) Operative() string { return m.Sections[SectionOperative] }

var (
	// invisibleReplacer maps zero-width and non-breaking space characters
	// to ordinary spaces before whitespace collapsing.
	invisibleReplacer = strings.NewReplacer(
		"\u200B", " ", // zero-width space
		"\uFEFF", " ", // BOM / zero-width no-break space
		"\u00A0", " ", // non-breaking space
		"\r", "\n",
	)

	multiNewlineRe = regexp.MustCompile(` *\n[\n ]*`)
	horizontalWSRe = regexp.MustCompile(`[ \t]+`)
)

// Normalize canonicalizes raw NOTAM text: invisible characters become
// spaces, runs of horizontal whitespace collapse to a single space,
// runs of newlines (and any spaces hugging them) collapse to one bare
// newline, and the result is trimmed and upper-cased. Normalize is
// idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := invisibleReplacer.Replace(text)
	t = horizontalWSRe.ReplaceAllString(t, " ")
	t = multiNewlineRe.ReplaceAllString(t, "\n")
	return strings.ToUpper(strings.TrimSpace(t))
}

// SplitSections scans normalized text line by line and assigns content
// to sections. A line starting with a label prefix ("Q)", "A)", ...)
// opens that section; the remainder of the line is its first content.
// Lines without a label append to the current section. Content before
// any label is discarded. All section keys are present in the result,
// absent sections map to "".
func SplitSections(normalized string) map[Section]string {
	out := make(map[Section]string, len(SectionOrder))
	for _, s := range SectionOrder {
		out[s] = ""
	}

	var current Section
	for _, line := range strings.Split(normalized, "\n") {
		if s, rest, ok := matchSectionLabel(line); ok {
			current = s
			out[current] = rest
			continue
		}
		if current != "" {
			out[current] = strings.TrimSpace(out[current] + " " + strings.TrimSpace(line))
		}
	}

	for s := range out {
		out[s] = strings.TrimSpace(out[s])
	}
	return out
}

// matchSectionLabel reports whether a line opens a new section and
// returns the label and the line content with the label stripped.
func matchSectionLabel(line string) (Section, string, bool) {
	for _, s := range SectionOrder {
		prefix := string(s) + ")"
		if strings.HasPrefix(line, prefix) {
			return s, strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", "", false
}

// ParseMessage runs the full normalization pipeline on raw NOTAM text.
func ParseMessage(raw string) Message {
	norm := Normalize(raw)
	return Message{
		Raw:        raw,
		Normalized: norm,
		Sections:   SplitSections(norm),
	}
}
