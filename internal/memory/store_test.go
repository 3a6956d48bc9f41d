package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightpath-labs/notam-interp/internal/domain"
)

func freezeClock(t *testing.T) clockwork.Clock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })
	return fake
}

func TestOpen(t *testing.T) {
	t.Run("missing file yields empty store", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "missing.json"))
		assert.Equal(t, 0, s.Len())
	})

	t.Run("malformed document yields empty store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memory.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		s := Open(path)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("reopen continues the id sequence", func(t *testing.T) {
		freezeClock(t)
		path := filepath.Join(t.TempDir(), "memory.json")

		s := Open(path)
		first, err := s.Append("E) UL613 RESMI-OKASI CLSD", Interpretation{Text: "closed"})
		require.NoError(t, err)
		assert.Equal(t, 1, first.ID)

		reopened := Open(path)
		require.Equal(t, 1, reopened.Len())
		second, err := reopened.Append("E) A909 KEKAL-BODBA CLSD", Interpretation{})
		require.NoError(t, err)
		assert.Equal(t, 2, second.ID)
	})
}

func TestAppend(t *testing.T) {
	fake := freezeClock(t)
	path := filepath.Join(t.TempDir(), "memory.json")
	s := Open(path)

	entry, err := s.Append("E) UQ100 MAVAX-DEVRO CLSD", Interpretation{
		Text:  "UQ100 MAVAX-DEVRO closed",
		Fixes: map[string]string{" mevax9xx ": "mavax"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, fake.Now().UTC().Format(time.RFC3339), entry.Timestamp)
	assert.Equal(t, "E) UQ100 MAVAX-DEVRO CLSD", entry.Message)
	assert.Equal(t, "MAVAX", entry.Interpretation.Fixes["MEVAX9XX"], "correction keys are upper-cased and trimmed")

	// The persisted document is the {entries: [...]} layout.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Entries []Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, entry, doc.Entries[0])

	// No stray temp files left behind.
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".memory-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAppendPersistFailure(t *testing.T) {
	freezeClock(t)
	path := filepath.Join(t.TempDir(), "memory.json")
	// A directory at the document path makes the rename fail.
	require.NoError(t, os.Mkdir(path, 0o755))
	s := Open(path)

	_, err := s.Append("E) UQ100 MAVAX-DEVRO CLSD", Interpretation{Text: "closed"})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len(), "failed append must not be visible to readers")
	assert.Empty(t, s.All())

	// Once the path is writable again the ID sequence starts fresh.
	require.NoError(t, os.Remove(path))
	entry, err := s.Append("E) UQ100 MAVAX-DEVRO CLSD", Interpretation{Text: "closed"})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
	assert.Equal(t, 1, s.Len())
}

func TestClear(t *testing.T) {
	freezeClock(t)
	path := filepath.Join(t.TempDir(), "memory.json")
	s := Open(path)

	_, err := s.Append("E) UL613 RESMI-OKASI CLSD", Interpretation{})
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, Open(path).Len(), "clear must persist")

	// IDs restart after a clear.
	entry, err := s.Append("E) A909 KEKAL-BODBA CLSD", Interpretation{})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ID)
}

func TestLookupCorrection(t *testing.T) {
	freezeClock(t)
	s := Open(filepath.Join(t.TempDir(), "memory.json"))

	_, err := s.Append("msg-1", Interpretation{Fixes: map[string]string{"MEVAX9XX": "MAVAX"}})
	require.NoError(t, err)

	t.Run("exact match", func(t *testing.T) {
		got, ok := s.LookupCorrection("MEVAX9XX")
		require.True(t, ok)
		assert.Equal(t, "MAVAX", got)
	})

	t.Run("case-insensitive", func(t *testing.T) {
		got, ok := s.LookupCorrection("mevax9xx")
		require.True(t, ok)
		assert.Equal(t, "MAVAX", got)
	})

	t.Run("fuzzy match above similarity bar", func(t *testing.T) {
		// One substitution in eight characters: similarity 0.875.
		got, ok := s.LookupCorrection("MEVAX9XY")
		require.True(t, ok)
		assert.Equal(t, "MAVAX", got)
	})

	t.Run("too distant", func(t *testing.T) {
		_, ok := s.LookupCorrection("ZZZZZ")
		assert.False(t, ok)
	})

	t.Run("newest entry wins", func(t *testing.T) {
		_, err := s.Append("msg-2", Interpretation{Fixes: map[string]string{"MEVAX9XX": "OKASI"}})
		require.NoError(t, err)

		got, ok := s.LookupCorrection("MEVAX9XX")
		require.True(t, ok)
		assert.Equal(t, "OKASI", got)
	})
}

func TestCorrectionByFixCode(t *testing.T) {
	freezeClock(t)
	s := Open(filepath.Join(t.TempDir(), "memory.json"))

	_, err := s.Append("E) UW75 AZBUL-SELVI CLSD", Interpretation{
		Segments: []domain.Segment{{Route: "UW75", From: "AZBUL", To: "SELVI", Segment: "AZBUL-SELVI"}},
		Fixes:    map[string]string{"MEVAX9XX": "MAVAX"},
	})
	require.NoError(t, err)

	t.Run("fixes field rewrites the code", func(t *testing.T) {
		got, ok := s.CorrectionByFixCode("MEVAX9XX")
		require.True(t, ok)
		assert.Equal(t, "MAVAX", got)
	})

	t.Run("segment endpoint attests the code itself", func(t *testing.T) {
		got, ok := s.CorrectionByFixCode("AZBUL")
		require.True(t, ok)
		assert.Equal(t, "AZBUL", got)
	})

	t.Run("raw message substring attests the code itself", func(t *testing.T) {
		got, ok := s.CorrectionByFixCode("UW75")
		require.True(t, ok)
		assert.Equal(t, "UW75", got)
	})

	t.Run("unknown code misses", func(t *testing.T) {
		_, ok := s.CorrectionByFixCode("NOPE1")
		assert.False(t, ok)
	})
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	freezeClock(t)
	s := Open(filepath.Join(t.TempDir(), "memory.json"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_, err := s.Append("E) UL613 RESMI-OKASI CLSD", Interpretation{Text: "closed"})
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 20; i++ {
		s.All()
		s.Len()
		s.LookupCorrection("MEVAX9XX")
		s.FindSimilar("E) UL613 RESMI-OKASI CLSD")
	}
	<-done

	assert.Equal(t, 20, s.Len())
}
