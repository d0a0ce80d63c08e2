package scheduler

import (
	"earthslight/server/internal/observability"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// JobType represents different types of maintenance jobs
type JobType int

const (
	JobTypeRetention JobType = iota
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeRetention:
		return "retention"
	default:
		return "unknown"
	}
}

// Pruner deletes prediction records created before a cutoff
type Pruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Scheduler periodically removes expired prediction history
type Scheduler struct {
	pruner    Pruner
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *logrus.Logger
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	jobMutex  sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(pruner Pruner, retention, interval time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	return &Scheduler{
		pruner:    pruner,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runScheduler prunes once at startup and then on every tick
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunRetention()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.Chan():
			s.RunRetention()
		}
	}
}

// RunRetention deletes records older than the retention window
func (s *Scheduler) RunRetention() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	cutoff := s.clock.Now().Add(-s.retention)
	fields := logrus.Fields{
		"job_type": JobTypeRetention.String(),
		"cutoff":   cutoff.UTC().Format(time.RFC3339),
	}

	deleted, err := s.pruner.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Retention job failed")
		return
	}

	s.metrics.HistoryPruned.Add(float64(deleted))
	if deleted > 0 {
		s.logger.WithFields(fields).WithField("deleted", deleted).Info("Pruned expired predictions")
	} else {
		s.logger.WithFields(fields).Debug("No expired predictions")
	}
}
