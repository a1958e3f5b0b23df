package portal

import (
	"context"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// ScheduledJobService manages recurring background task definitions.
type ScheduledJobService struct {
	res *resource[domain.ScheduledJob]
}

// List returns all scheduled jobs.
func (s *ScheduledJobService) List(ctx context.Context) ([]domain.ScheduledJob, error) {
	return s.res.list(ctx, nil)
}

// Create defines a new job.
func (s *ScheduledJobService) Create(ctx context.Context, job domain.ScheduledJob) error {
	return s.res.create(ctx, nil, job, func(current []domain.ScheduledJob) []domain.ScheduledJob {
		return append(append([]domain.ScheduledJob(nil), current...), job)
	})
}

// SetEnabled pauses or resumes a job.
func (s *ScheduledJobService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	patch := map[string]bool{"enabled": enabled}
	return s.res.update(ctx, nil, id, patch, func(current []domain.ScheduledJob) []domain.ScheduledJob {
		out := append([]domain.ScheduledJob(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].Enabled = enabled
			}
		}
		return out
	})
}

// Delete removes a job definition.
func (s *ScheduledJobService) Delete(ctx context.Context, id string) error {
	return s.res.remove(ctx, nil, id, func(current []domain.ScheduledJob) []domain.ScheduledJob {
		out := current[:0:0]
		for _, job := range current {
			if job.ID != id {
				out = append(out, job)
			}
		}
		return out
	})
}
