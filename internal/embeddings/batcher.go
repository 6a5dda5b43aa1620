package embeddings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkarrett/codescope/internal/segment"
)

// TruncationMarker is appended to a segment's text when its content was
// cut to fit the per-segment byte ceiling.
const TruncationMarker = "\n/* ...truncated... */"

// BatcherConfig bounds the batcher's exposure to the embedding provider.
// All limits come from configuration; provider quirks are never hard-coded.
type BatcherConfig struct {
	MaxBatchCount   int // maximum segments per provider call
	MaxBatchBytes   int // maximum cumulative payload bytes per provider call
	MaxSegmentBytes int // single-segment ceiling; larger content is truncated
	Concurrency     int // worker pool width for concurrent batch dispatch
}

// DefaultBatcherConfig returns conservative limits that fit the common
// embedding providers.
func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		MaxBatchCount:   100,
		MaxBatchBytes:   256 << 10,
		MaxSegmentBytes: 64 << 10,
		Concurrency:     4,
	}
}

func (c *BatcherConfig) applyDefaults() {
	d := DefaultBatcherConfig()
	if c.MaxBatchCount <= 0 {
		c.MaxBatchCount = d.MaxBatchCount
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = d.MaxBatchBytes
	}
	if c.MaxSegmentBytes <= 0 {
		c.MaxSegmentBytes = d.MaxSegmentBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	// A truncated segment must still fit into a batch on its own.
	if ceiling := c.MaxBatchBytes - len(TruncationMarker); c.MaxSegmentBytes > ceiling {
		c.MaxSegmentBytes = ceiling
	}
}

// BatchItem is one segment's prepared embedding input.
type BatchItem struct {
	ID        string
	Text      string
	Truncated bool
}

// Batch is an ephemeral group of items submitted together to the
// embedding provider. It is never persisted.
type Batch struct {
	Items []BatchItem
	Bytes int
}

// ids returns the segment ids in the batch, for error reporting.
func (b *Batch) ids() []string {
	ids := make([]string, len(b.Items))
	for i, item := range b.Items {
		ids[i] = item.ID
	}
	return ids
}

// BatchError reports a failed provider call together with the ids that
// were in the failed batch, so the caller can retry just those segments.
type BatchError struct {
	IDs []string
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding batch of %d segments failed: %v", len(e.IDs), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Batcher groups changed segments into bounded batches and drives
// embedding generation under bounded concurrency.
type Batcher struct {
	embedder   Embedder
	cfg        BatcherConfig
	onProgress func(done, total int)
}

// NewBatcher creates a Batcher over the given embedder.
func NewBatcher(embedder Embedder, cfg BatcherConfig) *Batcher {
	cfg.applyDefaults()
	return &Batcher{embedder: embedder, cfg: cfg}
}

// OnProgress registers a callback invoked after each batch settles
// (embedded or failed) with the number of segments processed so far.
// Calls are serialized; done reaches total exactly once.
func (b *Batcher) OnProgress(fn func(done, total int)) {
	b.onProgress = fn
}

// Plan assembles segments into batches respecting both the item-count and
// cumulative-byte ceilings. Every input segment lands in exactly one
// batch; oversized content is truncated with a marker rather than failing
// the run, so one pathological file cannot block indexing of the rest.
func (b *Batcher) Plan(segments []segment.Segment) []Batch {
	var batches []Batch
	var current Batch

	flush := func() {
		if len(current.Items) > 0 {
			batches = append(batches, current)
			current = Batch{}
		}
	}

	for _, seg := range segments {
		item := BatchItem{ID: seg.ID, Text: seg.Content}
		if len(item.Text) > b.cfg.MaxSegmentBytes {
			item.Text = strings.ToValidUTF8(item.Text[:b.cfg.MaxSegmentBytes], "") + TruncationMarker
			item.Truncated = true
		}

		if len(current.Items) >= b.cfg.MaxBatchCount || current.Bytes+len(item.Text) > b.cfg.MaxBatchBytes {
			flush()
		}
		current.Items = append(current.Items, item)
		current.Bytes += len(item.Text)
	}
	flush()

	return batches
}

// EmbedSegments embeds all given segments and returns a map from segment
// id to vector. Batches are dispatched by a bounded worker pool; order is
// not preserved, but every input id appears exactly once in the result
// unless its batch failed. Failures are returned as *BatchError values
// without discarding other batches' results.
func (b *Batcher) EmbedSegments(ctx context.Context, segments []segment.Segment) (map[string][]float32, []error) {
	if len(segments) == 0 {
		return map[string][]float32{}, nil
	}

	batches := b.Plan(segments)

	var mu sync.Mutex
	vectors := make(map[string][]float32, len(segments))
	var errs []error
	done := 0

	report := func(n int) {
		done += n
		if b.onProgress != nil {
			b.onProgress(done, len(segments))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			// Stop dispatching once cancelled; already-written results stay.
			if err := gctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, &BatchError{IDs: batch.ids(), Err: err})
				report(len(batch.Items))
				mu.Unlock()
				return nil
			}

			texts := make([]string, len(batch.Items))
			for i, item := range batch.Items {
				texts[i] = item.Text
			}

			embedded, err := b.embedder.Embed(gctx, texts)
			if err == nil && len(embedded) != len(texts) {
				err = fmt.Errorf("provider returned %d vectors for %d inputs", len(embedded), len(texts))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Fail-partial: record which ids were affected and move on.
				errs = append(errs, &BatchError{IDs: batch.ids(), Err: err})
				report(len(batch.Items))
				return nil
			}
			for i, item := range batch.Items {
				vectors[item.ID] = embedded[i]
			}
			report(len(batch.Items))
			return nil
		})
	}

	_ = g.Wait()
	return vectors, errs
}
