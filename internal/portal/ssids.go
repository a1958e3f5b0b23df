package portal

import (
	"context"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// SSIDService manages the networks broadcast at a site.
type SSIDService struct {
	res *resource[domain.SSID]
}

// List returns the SSIDs configured for a site.
func (s *SSIDService) List(ctx context.Context, siteID string) ([]domain.SSID, error) {
	return s.res.list(ctx, siteFilter(siteID))
}

// Create adds a new SSID.
func (s *SSIDService) Create(ctx context.Context, ssid domain.SSID) error {
	return s.res.create(ctx, siteFilter(ssid.SiteID), ssid, func(current []domain.SSID) []domain.SSID {
		return append(append([]domain.SSID(nil), current...), ssid)
	})
}

// SetEnabled toggles broadcasting of an SSID.
func (s *SSIDService) SetEnabled(ctx context.Context, siteID, id string, enabled bool) error {
	patch := map[string]bool{"enabled": enabled}
	return s.res.update(ctx, siteFilter(siteID), id, patch, func(current []domain.SSID) []domain.SSID {
		out := append([]domain.SSID(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].Enabled = enabled
			}
		}
		return out
	})
}

// Delete removes an SSID.
func (s *SSIDService) Delete(ctx context.Context, siteID, id string) error {
	return s.res.remove(ctx, siteFilter(siteID), id, func(current []domain.SSID) []domain.SSID {
		out := current[:0:0]
		for _, ssid := range current {
			if ssid.ID != id {
				out = append(out, ssid)
			}
		}
		return out
	})
}
