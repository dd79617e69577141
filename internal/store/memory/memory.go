package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/store"
	"tokodash/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	sales           map[string]domain.SaleRecord
	inventory       map[string]domain.InventoryItem
	inventoryOrder  []string
	losses          map[string]domain.LossRecord
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_VIEWER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	viewerPwd := envOr("SEED_VIEWER_PASSWORD", "viewer123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_VIEWER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_VIEWER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"viewer", viewerPwd, "viewer"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		log.Fatalf("[memory-store] bad seed amount %q: %v", value, err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

// NewSeeded builds a store pre-loaded with a week of believable retail data
// so the dashboard renders something useful out of the box. Timestamps are
// relative to startup, keeping the seed inside the default trend window.
func NewSeeded() *Store {
	now := time.Now().UTC()
	day := func(offset int, hour int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	}

	items := []domain.InventoryItem{
		{ID: "inv-001", Name: "Mie Goreng Instan", SKU: "SKU-MIE-01", Category: "Grocery", Stock: 140, Unit: "pcs", Price: dec("0.35"), CostPrice: decPtr("0.27"), ReorderThreshold: 30, Status: domain.InventoryStatusActive},
		{ID: "inv-002", Name: "Telur 10 Butir", SKU: "SKU-TELUR-01", Category: "Grocery", Stock: 42, Unit: "pack", Price: dec("2.65"), CostPrice: decPtr("2.30"), ReorderThreshold: 15, Status: domain.InventoryStatusActive},
		{ID: "inv-003", Name: "Susu UHT 1L", SKU: "SKU-SUSU-01", Category: "Dairy", Stock: 18, Unit: "box", Price: dec("1.89"), CostPrice: decPtr("1.36"), ReorderThreshold: 20, Status: domain.InventoryStatusActive},
		{ID: "inv-004", Name: "Roti Tawar", SKU: "SKU-ROTI-01", Category: "Bakery", Stock: 25, Unit: "loaf", Price: dec("1.78"), CostPrice: decPtr("1.25"), ReorderThreshold: 10, Status: domain.InventoryStatusActive},
		{ID: "inv-005", Name: "Kopi Sachet", SKU: "SKU-KOPI-01", Category: "Beverage", Stock: 260, Unit: "pcs", Price: dec("0.26"), CostPrice: decPtr("0.17"), ReorderThreshold: 50, Status: domain.InventoryStatusActive},
		{ID: "inv-006", Name: "Gula 1kg", SKU: "SKU-GULA-01", Category: "Grocery", Stock: 8, Unit: "bag", Price: dec("1.74"), CostPrice: decPtr("1.53"), ReorderThreshold: 12, Status: domain.InventoryStatusActive},
		{ID: "inv-007", Name: "Air Mineral 600ml", SKU: "SKU-AIR-01", Category: "Beverage", Stock: 190, Unit: "bottle", Price: dec("0.39"), CostPrice: decPtr("0.32"), ReorderThreshold: 48, Status: domain.InventoryStatusActive},
		{ID: "inv-008", Name: "Keripik Singkong", SKU: "SKU-KERIPIK-01", Category: "Snack", Stock: 55, Unit: "bag", Price: dec("1.28"), CostPrice: decPtr("0.80"), ReorderThreshold: 15, Status: domain.InventoryStatusActive},
		{ID: "inv-009", Name: "Coklat Batang", SKU: "SKU-COKLAT-01", Category: "Snack", Stock: 34, Unit: "pcs", Price: dec("0.86"), ReorderThreshold: 10, Status: domain.InventoryStatusActive},
		{ID: "inv-010", Name: "Sabun Mandi", SKU: "SKU-SABUN-01", Category: "Household", Stock: 61, Unit: "pcs", Price: dec("0.74"), CostPrice: decPtr("0.50"), ReorderThreshold: 20, Status: domain.InventoryStatusActive},
	}

	line := func(id string, name string, qty int, unitPrice string) domain.SaleLineItem {
		price := dec(unitPrice)
		return domain.SaleLineItem{
			ProductID: id,
			Name:      name,
			Quantity:  qty,
			UnitPrice: price,
			Subtotal:  price.Mul(decimal.NewFromInt(int64(qty))),
		}
	}
	refundedAt := day(1, 16)

	sales := []domain.SaleRecord{
		{ID: "sale-1001", Cashier: "sari", Timestamp: day(6, 9), Total: dec("6.05"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-001", "Mie Goreng Instan", 6, "0.35"), line("inv-002", "Telur 10 Butir", 1, "2.65"), line("inv-005", "Kopi Sachet", 5, "0.26")}},
		{ID: "sale-1002", Cashier: "budi", Timestamp: day(6, 14), Total: dec("3.67"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-004", "Roti Tawar", 1, "1.78"), line("inv-003", "Susu UHT 1L", 1, "1.89")}},
		{ID: "sale-1003", Cashier: "sari", Timestamp: day(5, 10), Total: dec("5.12"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-008", "Keripik Singkong", 4, "1.28")}},
		{ID: "sale-1004", Cashier: "budi", Timestamp: day(5, 17), Total: dec("3.90"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-007", "Air Mineral 600ml", 10, "0.39")}},
		{ID: "sale-1005", Cashier: "sari", Timestamp: day(4, 11), Total: dec("6.96"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-006", "Gula 1kg", 4, "1.74")}},
		{ID: "sale-1006", Cashier: "budi", Timestamp: day(3, 9), Total: dec("4.30"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-009", "Coklat Batang", 5, "0.86")}},
		{ID: "sale-1007", Cashier: "sari", Timestamp: day(3, 15), Total: dec("2.22"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-010", "Sabun Mandi", 3, "0.74")}},
		{ID: "sale-1008", Cashier: "budi", Timestamp: day(2, 12), Total: dec("7.95"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-002", "Telur 10 Butir", 3, "2.65")}},
		{ID: "sale-1009", Cashier: "sari", Timestamp: day(1, 10), Total: dec("3.78"), Status: domain.SaleStatusRefunded, RefundedBy: "admin", RefundedAt: &refundedAt,
			Items: []domain.SaleLineItem{line("inv-003", "Susu UHT 1L", 2, "1.89")}},
		{ID: "sale-1010", Cashier: "budi", Timestamp: day(1, 13), Total: dec("4.55"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-001", "Mie Goreng Instan", 13, "0.35")}},
		{ID: "sale-1011", Cashier: "sari", Timestamp: day(0, 9), Total: dec("5.30"), Status: domain.SaleStatusCompleted,
			Items: []domain.SaleLineItem{line("inv-005", "Kopi Sachet", 10, "0.26"), line("inv-004", "Roti Tawar", 1, "1.78"), line("inv-010", "Sabun Mandi", 1, "0.74")}},
	}

	losses := []domain.LossRecord{
		{ID: "loss-2001", Timestamp: day(5, 18), ItemName: "Susu UHT 1L", Quantity: 2, Reason: "Expired", RecordedBy: "sari", Value: dec("3.78")},
		{ID: "loss-2002", Timestamp: day(3, 8), ItemName: "Roti Tawar", Quantity: 3, Reason: "Damaged", RecordedBy: "budi", Value: dec("5.34")},
		{ID: "loss-2003", Timestamp: day(1, 19), ItemName: "Coklat Batang", Quantity: 1, Reason: "Unknown", RecordedBy: "sari", Value: dec("0.86")},
	}

	s := &Store{
		sales:           make(map[string]domain.SaleRecord, len(sales)),
		inventory:       make(map[string]domain.InventoryItem, len(items)),
		losses:          make(map[string]domain.LossRecord, len(losses)),
		usersByUsername: seedUsers(),
	}
	for _, sale := range sales {
		s.sales[sale.ID] = sale
	}
	for _, item := range items {
		s.inventory[item.ID] = item
		s.inventoryOrder = append(s.inventoryOrder, item.ID)
	}
	for _, loss := range losses {
		s.losses[loss.ID] = loss
	}
	return s
}

// NewEmpty builds a store with seed users but no records. Tests use it to
// exercise the no-data paths.
func NewEmpty() *Store {
	return &Store{
		sales:           map[string]domain.SaleRecord{},
		inventory:       map[string]domain.InventoryItem{},
		losses:          map[string]domain.LossRecord{},
		usersByUsername: seedUsers(),
	}
}

func inRange(ts time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SaleRecord, 0, len(s.sales))
	for _, sale := range s.sales {
		if inRange(sale.Timestamp, from, to) {
			result = append(result, cloneSale(sale))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.InventoryItem, 0, len(s.inventoryOrder))
	for _, id := range s.inventoryOrder {
		if item, ok := s.inventory[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *Store) ListLosses(ctx context.Context, from time.Time, to time.Time) ([]domain.LossRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LossRecord, 0, len(s.losses))
	for _, loss := range s.losses {
		if inRange(loss.Timestamp, from, to) {
			result = append(result, loss)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (s *Store) InsertSales(ctx context.Context, records []domain.SaleRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, record := range records {
		if record.ID == "" {
			record.ID = xid.New("sale")
		}
		s.sales[record.ID] = cloneSale(record)
		inserted++
	}
	return inserted, nil
}

func (s *Store) InsertInventory(ctx context.Context, items []domain.InventoryItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, item := range items {
		if item.ID == "" {
			item.ID = xid.New("inv")
		}
		if _, exists := s.inventory[item.ID]; !exists {
			s.inventoryOrder = append(s.inventoryOrder, item.ID)
		}
		s.inventory[item.ID] = item
		inserted++
	}
	return inserted, nil
}

func (s *Store) InsertLosses(ctx context.Context, records []domain.LossRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, record := range records {
		if record.ID == "" {
			record.ID = xid.New("loss")
		}
		s.losses[record.ID] = record
		inserted++
	}
	return inserted, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "viewer"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneSale(sale domain.SaleRecord) domain.SaleRecord {
	clone := sale
	if sale.Items != nil {
		clone.Items = make([]domain.SaleLineItem, len(sale.Items))
		copy(clone.Items, sale.Items)
	}
	if sale.RefundedAt != nil {
		at := *sale.RefundedAt
		clone.RefundedAt = &at
	}
	return clone
}
