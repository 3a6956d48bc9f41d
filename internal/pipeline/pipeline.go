// Package pipeline orchestrates NOTAM interpretation: the per-message
// Interpreter and the batch extract-transform-load loop that feeds it
// from the source topic.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/flightpath-labs/notam-interp/internal/domain"
	"github.com/flightpath-labs/notam-interp/internal/observability"
)

// Retry backoff for broker failures: start short, double per retry,
// cap so a long outage polls every few seconds.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into an interpretation.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (Interpretation, error)
}

// BatchLoader writes multiple interpretations to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []Interpretation) error
}

// Pipeline owns the streaming ingest loop: batches of raw NOTAMs in,
// interpretations out, offsets committed only once the results are on
// the sink topic.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	backoff     time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		backoff:     initialBackoff,
	}
}

// CheckReadiness returns nil once the pipeline has interpreted at least
// one message, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not interpreted any messages yet")
	}
	return nil
}

// Run executes the batch interpretation loop until the context is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingest pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.runCycle(ctx) {
			return nil
		}
	}
}

// runCycle performs one extract-interpret-publish round trip. Returns
// false if the pipeline should stop.
func (p *Pipeline) runCycle(ctx context.Context) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	p.backoff = initialBackoff

	published, ok := p.interpretAndPublish(ctx, rawBatch)
	if !ok {
		return false
	}

	if published > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// interpretAndPublish interprets each raw NOTAM in the batch, publishes
// the successes, and commits offsets. Offsets for skipped messages are
// committed immediately; offsets for interpreted messages only after
// the sink write succeeds, so a publish failure replays them. Returns
// the number of published interpretations and false if the pipeline
// should stop.
func (p *Pipeline) interpretAndPublish(ctx context.Context, rawBatch []domain.RawEvent) (int, bool) {
	results := make([]Interpretation, 0, len(rawBatch))
	interpreted := make([]domain.RawEvent, 0, len(rawBatch))
	bySource := make(map[string]int)

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("interpret failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		results = append(results, out)
		interpreted = append(interpreted, raw)
		bySource[sourceLabel(out.Source)]++
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(results))
		return 0, p.backoffOrStop(ctx)
	}

	p.metrics.MessagesProduced.Add(float64(len(results)))
	p.logger.Debug("batch interpreted",
		"messages", len(rawBatch),
		"published", len(results),
		"skipped", len(rawBatch)-len(results),
		"by_source", bySource,
	)

	for _, raw := range interpreted {
		p.commitOffset(ctx, raw)
	}

	return len(results), true
}

// backoffOrStop checks for context cancellation, sleeps with the
// current backoff, and doubles it up to the cap. Returns false if the
// pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, p.backoff) {
		return false
	}
	p.backoff *= 2
	if p.backoff > maxBackoff {
		p.backoff = maxBackoff
	}
	return true
}

// commitOffset commits the message offset if a commit function is
// available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
