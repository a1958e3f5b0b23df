package portal

import (
	"context"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// AccessPointService manages access points for a site.
type AccessPointService struct {
	res *resource[domain.AccessPoint]
}

func siteFilter(siteID string) map[string]string {
	return map[string]string{"site": siteID}
}

// List returns the access points of a site.
func (s *AccessPointService) List(ctx context.Context, siteID string) ([]domain.AccessPoint, error) {
	return s.res.list(ctx, siteFilter(siteID))
}

// Create registers a new access point.
func (s *AccessPointService) Create(ctx context.Context, ap domain.AccessPoint) error {
	return s.res.create(ctx, siteFilter(ap.SiteID), ap, func(current []domain.AccessPoint) []domain.AccessPoint {
		return append(append([]domain.AccessPoint(nil), current...), ap)
	})
}

// Rename changes an access point's display name.
func (s *AccessPointService) Rename(ctx context.Context, siteID, id, name string) error {
	patch := map[string]string{"name": name}
	return s.res.update(ctx, siteFilter(siteID), id, patch, func(current []domain.AccessPoint) []domain.AccessPoint {
		out := append([]domain.AccessPoint(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].Name = name
			}
		}
		return out
	})
}

// Delete removes an access point.
func (s *AccessPointService) Delete(ctx context.Context, siteID, id string) error {
	return s.res.remove(ctx, siteFilter(siteID), id, func(current []domain.AccessPoint) []domain.AccessPoint {
		out := current[:0:0]
		for _, ap := range current {
			if ap.ID != id {
				out = append(out, ap)
			}
		}
		return out
	})
}
