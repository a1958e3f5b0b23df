package portal

import (
	"context"
	"time"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// SiteSurveyService manages field surveys for a site.
type SiteSurveyService struct {
	res *resource[domain.SiteSurvey]
}

// List returns the surveys of a site.
func (s *SiteSurveyService) List(ctx context.Context, siteID string) ([]domain.SiteSurvey, error) {
	return s.res.list(ctx, siteFilter(siteID))
}

// Schedule books a new survey.
func (s *SiteSurveyService) Schedule(ctx context.Context, survey domain.SiteSurvey) error {
	return s.res.create(ctx, siteFilter(survey.SiteID), survey, func(current []domain.SiteSurvey) []domain.SiteSurvey {
		return append(append([]domain.SiteSurvey(nil), current...), survey)
	})
}

// Reschedule moves a survey to a new time.
func (s *SiteSurveyService) Reschedule(ctx context.Context, siteID, id string, at time.Time) error {
	patch := map[string]any{"scheduled_at": at}
	return s.res.update(ctx, siteFilter(siteID), id, patch, func(current []domain.SiteSurvey) []domain.SiteSurvey {
		out := append([]domain.SiteSurvey(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].ScheduledAt = at
			}
		}
		return out
	})
}

// Cancel removes a survey.
func (s *SiteSurveyService) Cancel(ctx context.Context, siteID, id string) error {
	return s.res.remove(ctx, siteFilter(siteID), id, func(current []domain.SiteSurvey) []domain.SiteSurvey {
		out := current[:0:0]
		for _, survey := range current {
			if survey.ID != id {
				out = append(out, survey)
			}
		}
		return out
	})
}
