// Package memory implements the persistent corrective memory: an
// append-only log of prior (message, interpretation) pairs stored as a
// single JSON document, with exact, fuzzy, and similarity-based
// retrieval. The store is the only shared mutable state in the
// service; writes are serialized and atomic from a reader's point of
// view.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flightpath-labs/notam-interp/internal/domain"
)

// correctionKeySimilarity is the minimum character-level similarity
// for a fuzzy correction-key match.
const correctionKeySimilarity = 0.8

// Interpretation is the structured value stored alongside a message:
// formatted text, extracted segments, and learned fix corrections
// (bad identifier → good identifier). Text-only entries leave the
// other fields empty.
type Interpretation struct {
	Text     string            `json:"text,omitempty"`
	Segments []domain.Segment  `json:"segments,omitempty"`
	Fixes    map[string]string `json:"fixes,omitempty"`
}

// Entry is one immutable record in the memory log.
type Entry struct {
	ID             int            `json:"id"`
	Timestamp      string         `json:"timestamp"` // RFC 3339 UTC
	Message        string         `json:"message"`
	Interpretation Interpretation `json:"interpretation"`
}

// document is the persisted file layout: a single ordered entry list.
type document struct {
	Entries []Entry `json:"entries"`
}

// Store owns the memory document for the process lifetime. Reads run
// concurrently; Append and Clear are mutually exclusive and persist by
// writing a temporary file and renaming it over the old document, so
// a concurrent reader of the file never observes a partial write.
type Store struct {
	path string

	mu     sync.RWMutex
	doc    document
	nextID int
}

// Open loads the document at path. A missing or malformed document
// yields an empty store; corruption is recovery, not an error.
func Open(path string) *Store {
	s := &Store{path: path, nextID: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return s
	}
	s.doc = doc
	for _, e := range doc.Entries {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Append stores a new entry and persists the document. The entry gets
// the next monotonic ID and the current UTC timestamp. Correction keys
// are upper-cased on the way in so lookups are case-insensitive.
func (s *Store) Append(message string, interp Interpretation) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(interp.Fixes) > 0 {
		fixes := make(map[string]string, len(interp.Fixes))
		for bad, good := range interp.Fixes {
			fixes[strings.ToUpper(strings.TrimSpace(bad))] = strings.ToUpper(strings.TrimSpace(good))
		}
		interp.Fixes = fixes
	}

	entry := Entry{
		ID:             s.nextID,
		Timestamp:      clock.Now().UTC().Format(time.RFC3339),
		Message:        message,
		Interpretation: interp,
	}

	// Persist the staged document before committing it, so a failed
	// append is never visible to in-process readers.
	staged := document{Entries: append(append([]Entry(nil), s.doc.Entries...), entry)}
	if err := s.persistLocked(staged); err != nil {
		return Entry{}, err
	}
	s.doc = staged
	s.nextID++
	return entry, nil
}

// All returns a copy of every entry in append order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.doc.Entries))
	copy(out, s.doc.Entries)
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Entries)
}

// Clear atomically resets the store to empty and persists the empty
// document.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(document{}); err != nil {
		return err
	}
	s.doc = document{}
	s.nextID = 1
	return nil
}

// LookupCorrection implements domain.CorrectionSource: exact match on
// a learned correction key first, then fuzzy match by character-level
// similarity over all stored keys. Newer entries win ties by being
// scanned first.
func (s *Store) LookupCorrection(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.doc.Entries) - 1; i >= 0; i-- {
		if good, ok := s.doc.Entries[i].Interpretation.Fixes[c]; ok {
			return good, true
		}
	}
	for i := len(s.doc.Entries) - 1; i >= 0; i-- {
		for bad, good := range s.doc.Entries[i].Interpretation.Fixes {
			if domain.StringSimilarity(c, bad) > correctionKeySimilarity {
				return good, true
			}
		}
	}
	return "", false
}

// CorrectionByFixCode implements domain.CorrectionSource for the fix
// validator: exact match on the learned-fixes field, then presence as
// an endpoint inside any stored interpretation, then substring match
// against a stored raw message. A code attested by a prior
// interpretation or message is returned as its own correction; only a
// fixes-map hit can rewrite it to a different identifier.
func (s *Store) CorrectionByFixCode(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.doc.Entries) - 1; i >= 0; i-- {
		if good, ok := s.doc.Entries[i].Interpretation.Fixes[c]; ok {
			return good, true
		}
	}
	for i := len(s.doc.Entries) - 1; i >= 0; i-- {
		for _, seg := range s.doc.Entries[i].Interpretation.Segments {
			if seg.From == c || seg.To == c {
				return c, true
			}
		}
	}
	for i := len(s.doc.Entries) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToUpper(s.doc.Entries[i].Message), c) {
			return c, true
		}
	}
	return "", false
}

// persistLocked writes doc to a temporary file in the target directory
// and renames it into place. Callers hold the write lock and commit
// doc to s.doc only after persistLocked succeeds.
func (s *Store) persistLocked(doc document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write memory document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp memory file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace memory document: %w", err)
	}
	return nil
}
