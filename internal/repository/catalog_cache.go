package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/homefix/service-lifecycle/internal/domain/catalog"
)

const serviceCacheKeyPrefix = "catalog:service:"

type cachedService struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	BasePriceCents int64     `json:"base_price_cents"`
	Currency       string    `json:"currency"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CachedServiceRepository is a read-through Redis cache over a catalog.ServiceRepository.
// A nil client disables caching. Redis failures fall back to the backing store.
type CachedServiceRepository struct {
	next   catalog.ServiceRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedServiceRepository(next catalog.ServiceRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedServiceRepository {
	return &CachedServiceRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func serviceCacheKey(id uuid.UUID) string {
	return serviceCacheKeyPrefix + id.String()
}

func (r *CachedServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	if r.rdb == nil {
		return r.next.FindByID(ctx, id)
	}

	key := serviceCacheKey(id)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedService
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return catalog.ReconstructService(c.ID, c.Name, c.Category, c.BasePriceCents, c.Currency, c.Active, c.CreatedAt, c.UpdatedAt), nil
		}
		r.logger.Warn("discarding corrupt catalog cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	svc, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, svc)
	return svc, nil
}

func (r *CachedServiceRepository) ListActive(ctx context.Context) ([]*catalog.Service, error) {
	return r.next.ListActive(ctx)
}

// Upsert writes through and overwrites the cached entry with the stored row.
// Read-through fills only populate a missing key, so a lookup that read the row
// before this write cannot put the old version back.
func (r *CachedServiceRepository) Upsert(ctx context.Context, svc *catalog.Service) error {
	if err := r.next.Upsert(ctx, svc); err != nil {
		return err
	}
	if r.rdb == nil {
		return nil
	}

	stored, err := r.next.FindByID(ctx, svc.ID())
	if err == nil {
		var body []byte
		if body, err = encodeService(stored); err == nil {
			err = r.rdb.Set(ctx, serviceCacheKey(stored.ID()), body, r.ttl).Err()
		}
	}
	if err != nil {
		r.logger.Warn("catalog cache refresh failed, invalidating", zap.String("service_id", svc.ID().String()), zap.Error(err))
		if delErr := r.rdb.Del(ctx, serviceCacheKey(svc.ID())).Err(); delErr != nil {
			r.logger.Warn("catalog cache invalidation failed", zap.String("service_id", svc.ID().String()), zap.Error(delErr))
		}
	}
	return nil
}

// fill caches a row loaded on a miss unless a writer got there first.
func (r *CachedServiceRepository) fill(ctx context.Context, svc *catalog.Service) {
	body, err := encodeService(svc)
	if err != nil {
		return
	}
	if err := r.rdb.SetNX(ctx, serviceCacheKey(svc.ID()), body, r.ttl).Err(); err != nil {
		r.logger.Warn("catalog cache write failed", zap.String("service_id", svc.ID().String()), zap.Error(err))
	}
}

func encodeService(svc *catalog.Service) ([]byte, error) {
	return json.Marshal(cachedService{
		ID:             svc.ID(),
		Name:           svc.Name(),
		Category:       svc.Category(),
		BasePriceCents: svc.BasePriceCents(),
		Currency:       svc.Currency(),
		Active:         svc.IsActive(),
		CreatedAt:      svc.CreatedAt(),
		UpdatedAt:      svc.UpdatedAt(),
	})
}

// NewRedisClient connects to Redis, returning nil when addr is empty or the
// server does not answer a ping.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", zap.String("addr", addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	logger.Info("connected to redis", zap.String("addr", addr))
	return rdb
}
