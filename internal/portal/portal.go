// Package portal exposes the entity services the admin portals are built
// on. One generic resource implements list/create/update/delete over the
// optimistic mutation protocol; per-entity services supply only paths,
// cache keys, and local transforms.
package portal

import (
	"context"
	"net/url"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cache"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/domain"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/api"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/mutation"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/retry"
)

// Services bundles every entity service over one cache and API client.
type Services struct {
	AccessPoints *AccessPointService
	SSIDs        *SSIDService
	Zones        *CoverageZoneService
	Surveys      *SiteSurveyService
	Tokens       *APITokenService
	Jobs         *ScheduledJobService
}

// NewServices wires the per-entity services.
func NewServices(client *api.Client, store cache.Store, opts mutation.Options) *Services {
	return &Services{
		AccessPoints: &AccessPointService{res: newResource[domain.AccessPoint](domain.EntityAccessPoint, "/access-points", client, store, opts)},
		SSIDs:        &SSIDService{res: newResource[domain.SSID](domain.EntitySSID, "/ssids", client, store, opts)},
		Zones:        &CoverageZoneService{res: newResource[domain.CoverageZone](domain.EntityCoverageZone, "/coverage-zones", client, store, opts)},
		Surveys:      &SiteSurveyService{res: newResource[domain.SiteSurvey](domain.EntitySiteSurvey, "/site-surveys", client, store, opts)},
		Tokens:       &APITokenService{res: newResource[domain.APIToken](domain.EntityAPIToken, "/tokens", client, store, opts)},
		Jobs:         &ScheduledJobService{res: newResource[domain.ScheduledJob](domain.EntityScheduledJob, "/scheduled-jobs", client, store, opts)},
	}
}

// resource is the shared implementation behind every entity service.
type resource[T any] struct {
	entity  domain.EntityType
	path    string
	api     *api.Client
	policy  retry.Policy
	fetcher *cache.Fetcher[[]T]
	coord   *mutation.Coordinator[[]T]
}

func newResource[T any](entity domain.EntityType, path string, client *api.Client, store cache.Store, opts mutation.Options) *resource[T] {
	bucket := cache.NewBucket[[]T](store)
	policy := retry.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &resource[T]{
		entity:  entity,
		path:    path,
		api:     client,
		policy:  policy,
		fetcher: cache.NewFetcher(bucket),
		coord:   mutation.New(bucket, opts),
	}
}

// list serves a filtered listing from cache, loading through retry on a
// miss or stale entry.
func (r *resource[T]) list(ctx context.Context, filters map[string]string) ([]T, error) {
	key := domain.ListKey(r.entity, filters)
	return r.fetcher.Fetch(ctx, key, func(ctx context.Context) ([]T, error) {
		return retry.Execute(ctx, func(ctx context.Context) ([]T, error) {
			query := url.Values{}
			for name, value := range filters {
				query.Set(name, value)
			}
			var out []T
			if err := r.api.Get(ctx, r.path, query, &out); err != nil {
				return nil, err
			}
			return out, nil
		}, r.policy)
	})
}

func (r *resource[T]) mutate(ctx context.Context, filters map[string]string, apply func([]T) []T, dispatch func(context.Context) error) error {
	return r.coord.Do(ctx, mutation.Mutation[[]T]{
		Entity:             r.entity,
		Key:                domain.ListKey(r.entity, filters),
		InvalidatePrefixes: []string{domain.Prefix(r.entity)},
		Apply:              apply,
		Dispatch:           dispatch,
	})
}

// create posts a new entity, optimistically appending it to the listing.
func (r *resource[T]) create(ctx context.Context, filters map[string]string, body T, apply func([]T) []T) error {
	return r.mutate(ctx, filters, apply, func(ctx context.Context) error {
		return r.api.Post(ctx, r.path, body, nil)
	})
}

// update patches an entity, optimistically transforming the listing.
func (r *resource[T]) update(ctx context.Context, filters map[string]string, id string, patch any, apply func([]T) []T) error {
	return r.mutate(ctx, filters, apply, func(ctx context.Context) error {
		return r.api.Patch(ctx, r.path+"/"+id, patch, nil)
	})
}

// remove deletes an entity, optimistically dropping it from the listing.
func (r *resource[T]) remove(ctx context.Context, filters map[string]string, id string, apply func([]T) []T) error {
	return r.mutate(ctx, filters, apply, func(ctx context.Context) error {
		return r.api.Delete(ctx, r.path+"/"+id)
	})
}
