package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/flightpath-labs/notam-interp/internal/domain"
)

// errEmptyMessage marks source messages with no NOTAM text. The loop
// skips and commits them rather than publishing sentinel results to
// the sink topic.
var errEmptyMessage = errors.New("empty message value")

// NOTAMTransformer implements Transformer by running the Interpreter
// over the raw message text. Stream messages carry no external
// candidate; AI-assisted arbitration only happens on the HTTP path,
// where the caller supplies the candidate.
type NOTAMTransformer struct {
	interpreter *Interpreter
}

// NewTransformer wraps an Interpreter for the batch loop.
func NewTransformer(interpreter *Interpreter) *NOTAMTransformer {
	return &NOTAMTransformer{interpreter: interpreter}
}

func (t *NOTAMTransformer) Transform(_ context.Context, raw domain.RawEvent) (Interpretation, error) {
	text := string(raw.Value)
	if strings.TrimSpace(text) == "" {
		return Interpretation{}, errEmptyMessage
	}
	return t.interpreter.Interpret(text, domain.Candidate{}), nil
}
