package facade

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllowsBurstUpToCapacity(t *testing.T) {
	t.Parallel()
	b := newTokenBucket(2, 1000) // plenty of capacity, fast refill

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := b.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestTokenBucketRespectsContextCancellation(t *testing.T) {
	t.Parallel()
	b := newTokenBucket(1, 0.001) // effectively never refills within the test window
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := b.Wait(ctx); err != nil {
		t.Fatalf("first Wait should succeed immediately: %v", err)
	}
	if err := b.Wait(ctx); err == nil {
		t.Error("second Wait should block past the timeout and return an error")
	}
}
