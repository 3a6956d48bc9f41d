// Package domain implements deterministic interpretation of ICAO NOTAM
// messages: normalization, section splitting, altitude-band resolution,
// route-segment extraction, fix validation, confidence scoring, and the
// soft-merge arbitration between the deterministic result and an
// externally produced candidate.
//
// # NOTAM structure
//
// A NOTAM body is a sequence of labeled sections, each introduced by a
// one-letter label at the start of a line:
//
//	Q) qualifier line: FIR, subject/condition code, traffic, purpose,
//	   scope, and a coarse lower/upper flight-level pair, slash-separated,
//	   e.g. "LTAA/QARLC/IV/NBO/E/000/150/"
//	A) affected location (FIR or aerodrome)
//	B) validity start   C) validity end   D) schedule
//	E) operative text — the actual restriction, and the only section
//	   routes and segments are extracted from
//	F) lower limit      G) upper limit
//
// Text between labels accumulates into the most recently seen section.
// Every label is always present in a split result, defaulting to "".
//
// # Altitude bands
//
// Altitudes are expressed as flight levels (hundreds of feet). Three
// sources are tried in strict priority order: an inline "X TO Y" phrase
// in the E section, the F/G limit sections, and the Q-line flight-level
// pair. Whatever wins, the Q-line upper bound remains the authoritative
// ceiling: a resolved upper bound above it is clamped down and the band
// is marked adjusted. Meter values convert at 3.28084 ft/m and round up
// to the next flight level; rounding up is the conservative choice for
// a restriction ceiling.
//
// # Fixes and corrections
//
// Waypoint identifiers are validated against three shapes: 3–5 letter
// waypoints, 2–3 letter navaids with an optional VOR/NDB/DME suffix,
// and 4-letter aerodrome codes. Identifiers that fail validation are
// run through the corrective memory (learned from prior
// interpretations) and a suffix-stripping heuristic before being
// rejected.
//
// All functions in this package are pure: no I/O, no shared state.
// The corrective memory is consumed through the CorrectionSource
// interface and injected by the caller.
package domain
