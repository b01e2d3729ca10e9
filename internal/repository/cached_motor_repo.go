package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"pump-control-backend/internal/models"
)

const (
	motorCacheTTL     = 30 * time.Second
	motorCacheCleanup = time.Minute
)

// CachedMotorRepo fronts the durable motor-state store with a short-TTL
// read cache. Every write refreshes the cached entry, so readers on the hot
// paths (interlock ticks, status polls) rarely touch the database.
type CachedMotorRepo struct {
	inner MotorStateRepo
	c     *cache.Cache
}

func NewCachedMotorRepo(inner MotorStateRepo) *CachedMotorRepo {
	return &CachedMotorRepo{
		inner: inner,
		c:     cache.New(motorCacheTTL, motorCacheCleanup),
	}
}

func (r *CachedMotorRepo) Get(ctx context.Context, deviceID string) (models.MotorState, bool, error) {
	if v, ok := r.c.Get(deviceID); ok {
		return v.(models.MotorState), true, nil
	}
	st, found, err := r.inner.Get(ctx, deviceID)
	if err != nil || !found {
		return models.MotorState{}, found, err
	}
	r.c.Set(deviceID, st, motorCacheTTL)
	return st, true, nil
}

func (r *CachedMotorRepo) Save(ctx context.Context, st models.MotorState) error {
	if err := r.inner.Save(ctx, st); err != nil {
		return err
	}
	r.c.Set(st.DeviceID, st, motorCacheTTL)
	return nil
}

// List always reads through to the durable store (it is the authority on
// which devices exist) and refreshes the cache along the way.
func (r *CachedMotorRepo) List(ctx context.Context) ([]models.MotorState, error) {
	states, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		r.c.Set(st.DeviceID, st, motorCacheTTL)
	}
	return states, nil
}
