package worker

import (
	"context"
	"errors"
	"testing"
)

func TestBatch_FlushesEveryN(t *testing.T) {
	var flushed []int
	b := NewBatch(10, func(_ context.Context, done int) error {
		flushed = append(flushed, done)
		return nil
	})

	var seen []int
	done, err := b.Run(context.Background(), 25, func(_ context.Context, i int) error {
		seen = append(seen, i)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 25 {
		t.Errorf("expected 25 records, got %d", done)
	}
	if len(flushed) != 2 || flushed[0] != 10 || flushed[1] != 20 {
		t.Errorf("expected flushes at 10 and 20, got %v", flushed)
	}
	for i, v := range seen {
		if v != i {
			t.Fatalf("records processed out of order: %v", seen)
		}
	}
}

func TestBatch_FatalErrorFlushesPartialProgress(t *testing.T) {
	var flushed []int
	b := NewBatch(10, func(_ context.Context, done int) error {
		flushed = append(flushed, done)
		return nil
	})

	boom := errors.New("boom")
	done, err := b.Run(context.Background(), 30, func(_ context.Context, i int) error {
		if i == 13 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if done != 13 {
		t.Errorf("expected 13 records done, got %d", done)
	}
	if len(flushed) != 2 || flushed[1] != 13 {
		t.Errorf("expected flushes at 10 and 13, got %v", flushed)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBatch(10, nil)

	done, err := b.Run(ctx, 100, func(_ context.Context, i int) error {
		if i == 4 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if done != 5 {
		t.Errorf("expected 5 records done, got %d", done)
	}
}

func TestBatch_FlushFailureStops(t *testing.T) {
	b := NewBatch(2, func(_ context.Context, _ int) error {
		return errors.New("disk full")
	})

	done, err := b.Run(context.Background(), 10, func(_ context.Context, _ int) error { return nil })
	if err == nil {
		t.Fatal("expected checkpoint error")
	}
	if done != 2 {
		t.Errorf("expected to stop after first batch, got %d", done)
	}
}
