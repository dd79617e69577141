package store

import (
	"context"
	"errors"
	"time"

	"tokodash/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the persistence boundary the aggregation service reads
// from. List methods with a time range treat a zero bound as open-ended.
type Repository interface {
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error)
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
	ListLosses(ctx context.Context, from time.Time, to time.Time) ([]domain.LossRecord, error)

	InsertSales(ctx context.Context, records []domain.SaleRecord) (int, error)
	InsertInventory(ctx context.Context, items []domain.InventoryItem) (int, error)
	InsertLosses(ctx context.Context, records []domain.LossRecord) (int, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
