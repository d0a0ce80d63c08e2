package processor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earthslight/server/config"
	"earthslight/server/internal/database"
	"earthslight/server/internal/models"
	"earthslight/server/internal/observability"
	"earthslight/server/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor writes prediction record batches from the queue to the database
type BatchProcessor struct {
	db        Transactor
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.PredictionQueue
	metrics   *observability.Metrics
	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.PredictionQueue, config *config.Config, metrics *observability.Metrics, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:      db,
		queue:   queue,
		config:  config,
		metrics: metrics,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes the processor to the queue. Batches are handled on the
// queue's goroutine, one at a time.
func (p *BatchProcessor) Start() {
	p.startOnce.Do(func() {
		p.queue.Subscribe(p.processBatch)
	})
}

// Stop abandons any retry that is waiting
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// processBatch handles a single batch of records with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.PredictionRecord) error {
	attempts := p.config.BatchProcessing.MaxRetries + 1
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("batch processing stopped: %w", err)
			case <-time.After(delay):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := database.SavePredictions(tx, batch); err != nil {
				return fmt.Errorf("failed to save predictions batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.metrics.HistoryWritten.Add(float64(len(batch)))
			p.logger.Debugf("Successfully processed batch of %d predictions", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}
