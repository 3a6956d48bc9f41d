package domain

import (
	"context"
	"time"
)

// RawEvent is an unprocessed message from the source topic. Value
// carries the raw NOTAM text as UTF-8 bytes; the collector publishes
// one NOTAM per message.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
