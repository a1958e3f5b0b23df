package portal

import (
	"context"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// CoverageZoneService manages served areas.
type CoverageZoneService struct {
	res *resource[domain.CoverageZone]
}

func regionFilter(region string) map[string]string {
	if region == "" {
		return nil
	}
	return map[string]string{"region": region}
}

// List returns coverage zones, optionally scoped to a region.
func (s *CoverageZoneService) List(ctx context.Context, region string) ([]domain.CoverageZone, error) {
	return s.res.list(ctx, regionFilter(region))
}

// Create adds a coverage zone.
func (s *CoverageZoneService) Create(ctx context.Context, zone domain.CoverageZone) error {
	return s.res.create(ctx, regionFilter(zone.Region), zone, func(current []domain.CoverageZone) []domain.CoverageZone {
		return append(append([]domain.CoverageZone(nil), current...), zone)
	})
}

// SetActive flips whether a zone is actively served.
func (s *CoverageZoneService) SetActive(ctx context.Context, region, id string, active bool) error {
	patch := map[string]bool{"active": active}
	return s.res.update(ctx, regionFilter(region), id, patch, func(current []domain.CoverageZone) []domain.CoverageZone {
		out := append([]domain.CoverageZone(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].Active = active
			}
		}
		return out
	})
}

// Delete removes a coverage zone.
func (s *CoverageZoneService) Delete(ctx context.Context, region, id string) error {
	return s.res.remove(ctx, regionFilter(region), id, func(current []domain.CoverageZone) []domain.CoverageZone {
		out := current[:0:0]
		for _, zone := range current {
			if zone.ID != id {
				out = append(out, zone)
			}
		}
		return out
	})
}
