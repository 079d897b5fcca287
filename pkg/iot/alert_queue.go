package iot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type AlertJob struct {
	Device    *models.Device
	MeasuredC float64
	At        time.Time
}

// AlertQueue runs alert evaluation off the request path on a fixed set of
// workers. Jobs that do not fit in the buffer are dropped.
type AlertQueue struct {
	alert   IAlert
	workers int
	jobs    chan AlertJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAlertQueue(alert IAlert, workers, size int) *AlertQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = workers
	}
	return &AlertQueue{
		alert:   alert,
		workers: workers,
		jobs:    make(chan AlertJob, size),
	}
}

func (q *AlertQueue) Start(ctx context.Context) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
	)

	for w := range q.workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				sent := q.alert.CheckSample(ctx, job.Device, job.MeasuredC, job.At)
				if len(sent) > 0 {
					logger.Debug("Alert worker dispatched", zap.Int("worker", w), zap.Int("sent", len(sent)))
				}
			}
		}()
	}
}

func (q *AlertQueue) Enqueue(job AlertJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.jobs <- job:
		return true
	default:
		common.GetLoggerWith(
			common.LoggerNameIOTCore,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
		).Warn("Alert queue full, dropping job", zap.String("serial", job.Device.Serial))
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to drain.
func (q *AlertQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
