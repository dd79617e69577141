package cache

import (
	"context"
	"time"

	"tokodash/backend/internal/domain"
)

type DashboardCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardSnapshot, bool, error)
	Set(ctx context.Context, key string, value *domain.DashboardSnapshot, ttl time.Duration) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*domain.DashboardSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *domain.DashboardSnapshot, _ time.Duration) error {
	return nil
}
