package template

import (
	"context"
	"sync"
	"time"

	"github.com/garageops/workshop-notify/internal/cache"
	"github.com/garageops/workshop-notify/internal/logger"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/repository"
	"go.uber.org/zap"
)

const DefaultTTL = 5 * time.Minute

// Adapter resolves the merged template set for a tenant: global entries
// overlaid with tenant-scoped ones (tenant wins on collision). Template
// resolution never fails — on a store error the last cached set is served,
// falling back to an empty set the renderer covers with default copy.
type Adapter struct {
	repo  repository.TemplatesRepository
	cache *cache.TTL[model.TemplateSet]
}

func NewAdapter(repo repository.TemplatesRepository, ttl time.Duration) *Adapter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Adapter{
		repo:  repo,
		cache: cache.New[model.TemplateSet](ttl),
	}
}

// Get returns the merged template set for the tenant scope.
func (a *Adapter) Get(ctx context.Context, tenantID model.TenantID) model.TemplateSet {
	key := tenantID.CacheKey()
	if set, ok := a.cache.Get(key); ok {
		return set
	}

	set, err := a.load(ctx, tenantID)
	if err != nil {
		logger.Log.Warn("template load failed, serving cached set",
			zap.String("tenant", key), zap.Error(err))
		if stale, ok := a.cache.GetStale(key); ok {
			return stale
		}
		return model.TemplateSet{}
	}

	a.cache.Set(key, set)
	return set
}

// load issues the tenant and global reads in parallel. The tenant read is
// skipped entirely for the global scope.
func (a *Adapter) load(ctx context.Context, tenantID model.TenantID) (model.TemplateSet, error) {
	var (
		wg                     sync.WaitGroup
		tenantRows, globalRows []model.MessageTemplate
		tenantErr, globalErr   error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		globalRows, globalErr = a.repo.ListGlobal(ctx)
	}()

	if !tenantID.IsGlobal() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tenantRows, tenantErr = a.repo.ListByTenant(ctx, tenantID)
		}()
	}
	wg.Wait()

	if globalErr != nil {
		return nil, globalErr
	}
	if tenantErr != nil {
		return nil, tenantErr
	}

	set := make(model.TemplateSet, len(globalRows)+len(tenantRows))
	for _, row := range globalRows {
		set[row.EventType] = row.Body
	}
	for _, row := range tenantRows {
		set[row.EventType] = row.Body
	}
	return set, nil
}

// Flush drops the cache; used by tests and the seed command.
func (a *Adapter) Flush() { a.cache.Flush() }
