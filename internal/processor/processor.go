package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealradar/internal/engine"
	"dealradar/internal/models"
	"dealradar/internal/queue"
)

// Pipeline is the batch consumer the processor feeds; satisfied by
// engine.Engine.
type Pipeline interface {
	ProcessBatch(listings []models.Listing) (engine.Result, error)
}

// Options control the retry behavior for failed batches.
type Options struct {
	WorkerCount int
	MaxRetries  int
	RetryDelay  time.Duration
}

// BatchProcessor drains the listing queue into the engine, retrying batches
// whose persistence layer hiccuped. The retry policy lives here on purpose:
// the engine itself never retries.
type BatchProcessor struct {
	pipeline Pipeline
	queue    *queue.ListingQueue
	logger   *logrus.Logger
	opts     Options
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewBatchProcessor(pipeline Pipeline, q *queue.ListingQueue, opts Options, logger *logrus.Logger) *BatchProcessor {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		pipeline: pipeline,
		queue:    q,
		logger:   logger,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes the processor to the queue.
func (p *BatchProcessor) Start() {
	for i := 0; i < p.opts.WorkerCount; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.queue.Subscribe(func(batch []models.Listing) error {
				return p.processBatch(batch)
			})
		}()
	}
}

// Stop waits for in-flight work to finish.
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *BatchProcessor) processBatch(batch []models.Listing) error {
	var err error
	for attempt := 0; attempt <= p.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.opts.MaxRetries)
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case <-time.After(p.opts.RetryDelay):
			}
		}

		var res engine.Result
		res, err = p.pipeline.ProcessBatch(batch)
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"processed":  res.Processed,
				"duplicates": res.Duplicates,
				"hot_deals":  res.HotDeals,
				"notified":   res.Notified,
			}).Info("Processed listing batch")
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.opts.MaxRetries, err)
}
