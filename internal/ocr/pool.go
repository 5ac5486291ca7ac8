package ocr

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits the number of concurrent recognitions performed by an engine.
type Pool struct {
	rec Recognizer
	sem *semaphore.Weighted
}

// NewPool wraps rec so that at most size recognitions run at once. size < 1 is treated as 1.
func NewPool(rec Recognizer, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{rec: rec, sem: semaphore.NewWeighted(int64(size))}
}

// Recognize waits for a free slot, or returns ctx.Err() if ctx ends first.
func (p *Pool) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)
	return p.rec.Recognize(ctx, image, mimeType)
}
