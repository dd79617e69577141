package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/store"
)

func TestListSalesFiltersByRange(t *testing.T) {
	s := NewEmpty()
	ctx := context.Background()

	_, err := s.InsertSales(ctx, []domain.SaleRecord{
		{ID: "old", Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("1.00")},
		{ID: "mid", Timestamp: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("2.00")},
		{ID: "new", Timestamp: time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("3.00")},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	sales, err := s.ListSales(ctx, from, to)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sales) != 1 || sales[0].ID != "mid" {
		t.Fatalf("expected only the in-range sale, got %+v", sales)
	}

	all, err := s.ListSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("zero bounds should be open-ended, got %d records", len(all))
	}
	if all[0].ID != "old" || all[2].ID != "new" {
		t.Fatalf("expected chronological order, got %+v", all)
	}
}

func TestInsertSalesAssignsIDsAndUpserts(t *testing.T) {
	s := NewEmpty()
	ctx := context.Background()

	inserted, err := s.InsertSales(ctx, []domain.SaleRecord{
		{Timestamp: time.Now().UTC(), Total: decimal.RequireFromString("1.00")},
	})
	if err != nil || inserted != 1 {
		t.Fatalf("insert failed: %v (inserted=%d)", err, inserted)
	}

	sales, _ := s.ListSales(ctx, time.Time{}, time.Time{})
	if len(sales) != 1 || sales[0].ID == "" {
		t.Fatalf("expected a generated ID, got %+v", sales)
	}

	sales[0].Total = decimal.RequireFromString("9.99")
	if _, err := s.InsertSales(ctx, sales); err != nil {
		t.Fatalf("reinsert failed: %v", err)
	}
	again, _ := s.ListSales(ctx, time.Time{}, time.Time{})
	if len(again) != 1 || again[0].Total.String() != "9.99" {
		t.Fatalf("expected upsert by ID, got %+v", again)
	}
}

func TestListInventoryKeepsInsertionOrder(t *testing.T) {
	s := NewEmpty()
	ctx := context.Background()

	_, err := s.InsertInventory(ctx, []domain.InventoryItem{
		{ID: "b", Name: "Beta", Price: decimal.RequireFromString("1.00")},
		{ID: "a", Name: "Alpha", Price: decimal.RequireFromString("2.00")},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	items, err := s.ListInventory(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Fatalf("expected insertion order, got %+v", items)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := NewEmpty()
	ctx := context.Background()

	err := s.CreateUser(ctx, domain.UserAccount{Username: "Analyst", Password: "hash", Active: true})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.CreateUser(ctx, domain.UserAccount{Username: "analyst", Password: "hash"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected duplicate username rejection, got %v", err)
	}

	if err := s.UpdateUserPassword(ctx, "ghost", "hash"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "analyst", "new-hash"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := false
	for _, user := range users {
		if user.Username == "analyst" && user.Password == "new-hash" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected updated analyst account, got %+v", users)
	}
}
