package queue

import (
	"earthslight/server/internal/models"
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// PredictionQueue represents an in-memory queue for prediction record batches
type PredictionQueue struct {
	items    chan []*models.PredictionRecord
	done     chan struct{}
	maxSize  int
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.PredictionRecord) error
}

// NewPredictionQueue creates a new prediction queue with the specified buffer size
func NewPredictionQueue(bufferSize int, logger *logrus.Logger) *PredictionQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &PredictionQueue{
		items:    make(chan []*models.PredictionRecord, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.PredictionRecord) error, 0),
	}
}

// Push adds a batch of records to the queue
func (q *PredictionQueue) Push(records []*models.PredictionRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send so a slow database never stalls a request
	select {
	case q.items <- records:
		q.logger.WithField("batch_size", len(records)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *PredictionQueue) Subscribe(handler func([]*models.PredictionRecord) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *PredictionQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

// process handles batches until the queue is closed and drained
func (q *PredictionQueue) process() {
	defer close(q.done)
	for batch := range q.items {
		q.processBatch(batch)
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *PredictionQueue) processBatch(batch []*models.PredictionRecord) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches and waits for queued ones to be handled
func (q *PredictionQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	started := q.started
	q.mu.Unlock()

	if started {
		<-q.done
	}
	return nil
}

// Len returns the current number of batches in the queue
func (q *PredictionQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *PredictionQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
