// internal/service/ingest_queue.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ingestQueue buffers telemetry samples and stores them through a bounded
// worker pool. Batch uploads from devices that were offline can be large;
// the queue keeps ingestion off the request path.
type ingestQueue struct {
	svc     *service
	log     *logrus.Logger
	workers int
	queue   chan IngestInput
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	capacityAlertThreshold float64
}

// newIngestQueue creates the queue and starts its worker pool
func newIngestQueue(svc *service, workers int) *ingestQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &ingestQueue{
		svc:     svc,
		log:     svc.log,
		workers: workers,
		queue:   make(chan IngestInput, 10000),
		ctx:     ctx,
		cancel:  cancel,

		capacityAlertThreshold: 0.8,
	}

	q.startWorkers()
	go q.monitorCapacity()

	q.log.Infof("Started ingest queue with %d workers", workers)

	return q
}

// startWorkers launches the worker goroutines
func (q *ingestQueue) startWorkers() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// worker drains samples from the queue
func (q *ingestQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			q.log.Debugf("Ingest worker %d shutting down", id)
			return
		case input := <-q.queue:
			start := time.Now()
			if _, err := q.svc.IngestReading(q.ctx, input); err != nil {
				q.log.WithError(err).WithField("owner_id", input.OwnerID).Error("Failed to ingest queued reading")
			}
			q.log.Debugf("Ingest worker %d processed reading in %v", id, time.Since(start))
		}
	}
}

// monitorCapacity logs a warning when the queue approaches its buffer limit
func (q *ingestQueue) monitorCapacity() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			length := len(q.queue)
			capacity := cap(q.queue)
			usage := float64(length) / float64(capacity)

			if usage >= q.capacityAlertThreshold {
				q.log.Warnf("Ingest queue at %d%% capacity (%d/%d)!", int(usage*100), length, capacity)
			}
		}
	}
}

// enqueue adds a sample for asynchronous ingestion
func (q *ingestQueue) enqueue(input IngestInput) error {
	select {
	case q.queue <- input:
		return nil
	default:
		return errors.New("ingest queue is full")
	}
}

// stop gracefully shuts down the worker pool
func (q *ingestQueue) stop() {
	q.log.Info("Stopping ingest queue...")
	q.cancel()
	q.wg.Wait()
	q.log.Info("Ingest queue stopped")
}

// stats returns current queue statistics
func (q *ingestQueue) stats() map[string]interface{} {
	return map[string]interface{}{
		"queue_length":   len(q.queue),
		"queue_capacity": cap(q.queue),
		"worker_count":   q.workers,
	}
}
