package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atmx/sales-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Reports are immutable once saved, so entries never need
// invalidation; only the summary list is dropped on write.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) SaveReport(ctx context.Context, r *model.Report) error {
	if err := s.primary.SaveReport(ctx, r); err != nil {
		return err
	}
	s.cacheReport(ctx, r)
	s.rdb.Del(ctx, listKey)
	return nil
}

func (s *CachedStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	data, err := s.rdb.Get(ctx, reportKey(id)).Bytes()
	if err == nil {
		var r model.Report
		if json.Unmarshal(data, &r) == nil {
			return &r, nil
		}
	}

	r, err := s.primary.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheReport(ctx, r)
	return r, nil
}

func (s *CachedStore) ListReports(ctx context.Context) ([]model.Report, error) {
	data, err := s.rdb.Get(ctx, listKey).Bytes()
	if err == nil {
		var reports []model.Report
		if json.Unmarshal(data, &reports) == nil {
			return reports, nil
		}
	}

	reports, err := s.primary.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(reports); err == nil {
		s.rdb.Set(ctx, listKey, data, s.ttl)
	}
	return reports, nil
}

func (s *CachedStore) cacheReport(ctx context.Context, r *model.Report) {
	if data, err := json.Marshal(r); err == nil {
		s.rdb.Set(ctx, reportKey(r.ID), data, s.ttl)
	}
}

const listKey = "sales-reports:list"

func reportKey(id string) string { return fmt.Sprintf("sales-report:%s", id) }
