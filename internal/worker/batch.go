package worker

import (
	"context"
	"fmt"
)

// FlushFunc persists partial progress
type FlushFunc func(ctx context.Context, done int) error

// Batch processes records one at a time and flushes progress every N
// records, so an interrupted run loses at most one batch
type Batch struct {
	every int
	flush FlushFunc
}

// NewBatch creates a batch that calls flush after every `every` records.
// A nil flush disables checkpointing.
func NewBatch(every int, flush FlushFunc) *Batch {
	if every <= 0 {
		every = 10
	}
	return &Batch{every: every, flush: flush}
}

// Run calls fn for each index in [0, total). fn returns an error only for
// failures that must stop the whole batch; per-record problems are handled
// inside fn. On cancellation the progress so far is flushed before
// returning ctx.Err().
func (b *Batch) Run(ctx context.Context, total int, fn func(ctx context.Context, i int) error) (int, error) {
	done := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return done, b.abort(ctx, done, err)
		}

		if err := fn(ctx, i); err != nil {
			return done, b.abort(ctx, done, fmt.Errorf("record %d: %w", i, err))
		}
		done++

		if done%b.every == 0 && b.flush != nil {
			if err := b.flush(ctx, done); err != nil {
				return done, fmt.Errorf("checkpoint after %d records: %w", done, err)
			}
		}
	}
	return done, nil
}

// abort saves what was processed and returns cause. The flush uses a fresh
// context because ctx may already be cancelled.
func (b *Batch) abort(_ context.Context, done int, cause error) error {
	if b.flush == nil || done == 0 || done%b.every == 0 {
		return cause
	}
	if err := b.flush(context.Background(), done); err != nil {
		return fmt.Errorf("%w (checkpoint also failed: %v)", cause, err)
	}
	return cause
}
