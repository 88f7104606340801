package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/internal/models"
	"github.com/copilot-pulse/backend/pkg/queue"
)

// StoredRowReader loads user metric rows already in the store for rebuild
// jobs; *leaderboard.Repository implements it.
type StoredRowReader interface {
	LatestUserMetricRows(ctx context.Context, orgSlug string) ([]models.UserMetricRow, error)
}

// Worker consumes collection jobs from the queue and runs cycles.
type Worker struct {
	queue  *queue.Queue
	cycle  *Cycle
	stored StoredRowReader
	logger *zap.Logger
}

// NewWorker creates a collection worker.
func NewWorker(q *queue.Queue, cycle *Cycle, stored StoredRowReader, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, cycle: cycle, stored: stored, logger: logger}
}

// Process executes one job.
func (w *Worker) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.CollectPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	org := models.ParseOrgSlug(payload.OrganizationSlug)
	if org.Slug == "" {
		return fmt.Errorf("empty organization slug")
	}

	switch job.Type {
	case queue.JobTypeCollectOrg:
		_, err := w.cycle.Run(ctx, org)
		return err
	case queue.JobTypeRebuildAdoption:
		rows, err := w.stored.LatestUserMetricRows(ctx, org.Slug)
		if err != nil {
			return fmt.Errorf("load stored user metrics: %w", err)
		}
		_, err = w.cycle.RebuildAdoption(ctx, org, rows)
		return err
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("collection worker stopping")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		w.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := w.Process(ctx, job); err != nil {
			w.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := w.queue.Retry(ctx, job); reErr != nil {
				w.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

// EnqueueAll pushes a collect job for every configured organization. The
// scheduler in cmd/worker calls it on each tick.
func (w *Worker) EnqueueAll(ctx context.Context, slugs []string) {
	for _, slug := range slugs {
		if _, err := w.queue.Enqueue(ctx, queue.JobTypeCollectOrg, queue.CollectPayload{OrganizationSlug: slug}); err != nil {
			w.logger.Error("enqueue failed", zap.String("organization_slug", slug), zap.Error(err))
		}
	}
}
