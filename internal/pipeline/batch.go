package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/achievement-classifier/internal/types"
)

// BatchItem is the outcome for one request of a batch. Exactly one of Result and Err is set.
type BatchItem struct {
	Request types.CertificateRequest `json:"request"`
	Result  *CertificateResult       `json:"result,omitempty"`
	Err     error                    `json:"-"`
}

// ProcessBatch processes certificates with at most concurrency in flight. A failing item does
// not stop the others; results keep the order of reqs. Only ctx cancellation aborts the batch.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []types.CertificateRequest, concurrency int) ([]BatchItem, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	items := make([]BatchItem, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		items[i].Request = req
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = p.ProcessCertificate(gCtx, req)
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return items, err
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	p.logger().Info("pipeline.batch.done", "total", len(items), "failed", failed)
	return items, nil
}
