package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealradar/internal/models"
	"dealradar/internal/queue"
)

// Scraper fetches one batch of raw listings from the scraping collaborator.
type Scraper interface {
	RunActor(urls []string, maxItems int) ([]models.Listing, error)
}

// Scheduler triggers periodic scan cycles: it asks the scraper for a fresh
// batch and pushes it onto the listing queue. Pacing lives here; the engine
// downstream is purely reactive.
type Scheduler struct {
	scraper   Scraper
	queue     *queue.ListingQueue
	logger    *logrus.Logger
	startURLs []string
	maxItems  int
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	jobMutex  sync.Mutex // Ensures sequential scan execution
}

func NewScheduler(scraper Scraper, q *queue.ListingQueue, startURLs []string, maxItems int, interval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		scraper:   scraper,
		queue:     q,
		logger:    logger,
		startURLs: startURLs,
		maxItems:  maxItems,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled scans, including an immediate startup run.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	go func() {
		s.logger.Info("Running startup scan")
		s.RunScan()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunScan()
		}
	}
}

// RunScan executes one scan cycle. Cycles never overlap; a manual trigger
// while a scheduled scan is running waits for it to finish.
func (s *Scheduler) RunScan() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if len(s.startURLs) == 0 {
		s.logger.Warn("No start URLs configured, skipping scan")
		return
	}

	s.logger.WithField("start_urls", len(s.startURLs)).Info("Starting scan cycle")

	listings, err := s.scraper.RunActor(s.startURLs, s.maxItems)
	if err != nil {
		s.logger.WithError(err).Error("Scan cycle failed")
		return
	}

	if len(listings) == 0 {
		s.logger.Info("Scan cycle returned no listings")
		return
	}

	if err := s.queue.Push(listings); err != nil {
		s.logger.WithError(err).WithField("batch_size", len(listings)).Error("Failed to enqueue scan batch")
		return
	}

	s.logger.WithField("batch_size", len(listings)).Info("Scan cycle completed")
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
