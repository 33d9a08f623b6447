package settings

import (
	"context"
	"time"

	"github.com/garageops/workshop-notify/internal/cache"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/repository"
)

// DefaultTTL is the staleness window for cached provider settings. There
// is no invalidation channel; settings edits become visible within TTL.
const DefaultTTL = 5 * time.Minute

// Adapter resolves provider settings for a tenant with a global fallback.
// Results, including "no settings at all", are cached per tenant scope so
// a store outage cannot turn into a query storm.
type Adapter struct {
	repo  repository.SettingsRepository
	cache *cache.TTL[*model.ProviderSettings]
}

func NewAdapter(repo repository.SettingsRepository, ttl time.Duration) *Adapter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Adapter{
		repo:  repo,
		cache: cache.New[*model.ProviderSettings](ttl),
	}
}

// Get returns the provider settings in effect for the tenant, or nil when
// none exist. A tenant-scoped row wins only when it is enabled; otherwise
// resolution falls through to the global row.
func (a *Adapter) Get(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error) {
	key := tenantID.CacheKey()
	if cfg, ok := a.cache.Get(key); ok {
		return cfg, nil
	}

	cfg, err := a.resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	a.cache.Set(key, cfg)
	return cfg, nil
}

func (a *Adapter) resolve(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error) {
	if !tenantID.IsGlobal() {
		cfg, err := a.repo.GetByTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if cfg != nil && cfg.Enabled {
			return cfg, nil
		}
	}
	return a.repo.GetGlobal(ctx)
}

// Flush drops the cache; used by tests and the seed command.
func (a *Adapter) Flush() { a.cache.Flush() }
