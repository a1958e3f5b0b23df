package portal

import (
	"context"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
)

// APITokenService manages portal API credentials.
type APITokenService struct {
	res *resource[domain.APIToken]
}

// List returns all tokens for the tenant.
func (s *APITokenService) List(ctx context.Context) ([]domain.APIToken, error) {
	return s.res.list(ctx, nil)
}

// Create issues a new token.
func (s *APITokenService) Create(ctx context.Context, token domain.APIToken) error {
	return s.res.create(ctx, nil, token, func(current []domain.APIToken) []domain.APIToken {
		return append(append([]domain.APIToken(nil), current...), token)
	})
}

// Revoke marks a token revoked. The token stays listed so operators can
// see the revocation; it is not removed.
func (s *APITokenService) Revoke(ctx context.Context, id string) error {
	patch := map[string]bool{"revoked": true}
	return s.res.update(ctx, nil, id, patch, func(current []domain.APIToken) []domain.APIToken {
		out := append([]domain.APIToken(nil), current...)
		for i := range out {
			if out[i].ID == id {
				out[i].Revoked = true
			}
		}
		return out
	})
}

// Delete removes a token entirely.
func (s *APITokenService) Delete(ctx context.Context, id string) error {
	return s.res.remove(ctx, nil, id, func(current []domain.APIToken) []domain.APIToken {
		out := current[:0:0]
		for _, token := range current {
			if token.ID != id {
				out = append(out, token)
			}
		}
		return out
	})
}
