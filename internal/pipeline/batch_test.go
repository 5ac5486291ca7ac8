package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/achievement-classifier/internal/fetch"
	"github.com/jonathan/achievement-classifier/internal/types"
)

func TestProcessBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	results := map[string]*fetch.Result{}
	var reqs []types.CertificateRequest
	for i := 0; i < 6; i++ {
		url := fmt.Sprintf("https://x.test/%d.txt", i)
		if i != 3 {
			results[url] = &fetch.Result{Body: []byte(certText), ContentType: "text/plain"}
		}
		reqs = append(reqs, types.CertificateRequest{StudentID: fmt.Sprintf("s%d", i), URL: url})
	}

	store := &memoryStore{}
	p := newTestProcessor(&stubFetcher{results: results}, nil, store)

	items, err := p.ProcessBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, items, len(reqs))

	for i, item := range items {
		assert.Equal(t, reqs[i], item.Request)
		if i == 3 {
			assert.Error(t, item.Err)
			assert.Nil(t, item.Result)
			continue
		}
		require.NoError(t, item.Err)
		assert.Equal(t, reqs[i].StudentID, item.Result.Record.StudentID)
	}
	assert.Len(t, store.records, 5)
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestProcessor(&stubFetcher{}, nil, nil)
	items, err := p.ProcessBatch(ctx, []types.CertificateRequest{{StudentID: "s", URL: "https://x.test/a"}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, items, 1)
	assert.Error(t, items[0].Err)
}

func TestProcessBatch_Empty(t *testing.T) {
	items, err := newTestProcessor(&stubFetcher{}, nil, nil).ProcessBatch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, items)
}
