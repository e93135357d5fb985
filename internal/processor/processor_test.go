package processor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"dealradar/internal/engine"
	"dealradar/internal/models"
	"dealradar/internal/queue"
)

type fakePipeline struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (f *fakePipeline) ProcessBatch(listings []models.Listing) (engine.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return engine.Result{}, errors.New("store unavailable")
	}
	return engine.Result{Processed: len(listings)}, nil
}

func TestProcessBatchSuccess(t *testing.T) {
	pipeline := &fakePipeline{}
	q := queue.NewListingQueue(10, logrus.New())
	p := NewBatchProcessor(pipeline, q, Options{MaxRetries: 3, RetryDelay: time.Millisecond}, logrus.New())

	err := p.processBatch([]models.Listing{{URL: "https://example.com/ad/1"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, pipeline.calls)
}

func TestProcessBatchRetriesThenSucceeds(t *testing.T) {
	pipeline := &fakePipeline{failures: 2}
	q := queue.NewListingQueue(10, logrus.New())
	p := NewBatchProcessor(pipeline, q, Options{MaxRetries: 3, RetryDelay: time.Millisecond}, logrus.New())

	err := p.processBatch([]models.Listing{{URL: "https://example.com/ad/1"}})
	assert.NoError(t, err)
	assert.Equal(t, 3, pipeline.calls)
}

func TestProcessBatchExhaustsRetries(t *testing.T) {
	pipeline := &fakePipeline{failures: 10}
	q := queue.NewListingQueue(10, logrus.New())
	p := NewBatchProcessor(pipeline, q, Options{MaxRetries: 2, RetryDelay: time.Millisecond}, logrus.New())

	err := p.processBatch([]models.Listing{{URL: "https://example.com/ad/1"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch after 2 attempts")
	assert.Equal(t, 3, pipeline.calls)
}

func TestStartStop(t *testing.T) {
	pipeline := &fakePipeline{}
	q := queue.NewListingQueue(10, logrus.New())
	p := NewBatchProcessor(pipeline, q, Options{WorkerCount: 2}, logrus.New())

	p.Start()
	q.Start()

	err := q.Push([]models.Listing{{URL: "https://example.com/ad/1"}})
	assert.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	p.Stop()
	q.Close()
	assert.True(t, q.IsClosed())

	pipeline.mu.Lock()
	assert.GreaterOrEqual(t, pipeline.calls, 1)
	pipeline.mu.Unlock()
}
