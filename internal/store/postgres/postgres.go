package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
	"tokodash/backend/internal/store"
	"tokodash/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cashier, occurred_at, total, status, items, refunded_by, refunded_at
		FROM sales
		WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		ORDER BY occurred_at ASC, id ASC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 256)
	for rows.Next() {
		var (
			sale       domain.SaleRecord
			itemsRaw   []byte
			refundedBy sql.NullString
			refundedAt sql.NullTime
		)
		if err := rows.Scan(&sale.ID, &sale.Cashier, &sale.Timestamp, &sale.Total, &sale.Status, &itemsRaw, &refundedBy, &refundedAt); err != nil {
			return nil, err
		}
		sale.Timestamp = sale.Timestamp.UTC()
		if len(itemsRaw) > 0 {
			if err := json.Unmarshal(itemsRaw, &sale.Items); err != nil {
				return nil, fmt.Errorf("decode sale items for %s: %w", sale.ID, err)
			}
		}
		if refundedBy.Valid {
			sale.RefundedBy = refundedBy.String
		}
		if refundedAt.Valid {
			at := refundedAt.Time.UTC()
			sale.RefundedAt = &at
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, category, stock, unit, price, cost_price, margin_override_pct, reorder_threshold, status
		FROM inventory_items
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 128)
	for rows.Next() {
		var (
			item     domain.InventoryItem
			cost     decimal.NullDecimal
			override sql.NullFloat64
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.SKU, &item.Category, &item.Stock, &item.Unit, &item.Price, &cost, &override, &item.ReorderThreshold, &item.Status); err != nil {
			return nil, err
		}
		if cost.Valid {
			c := cost.Decimal
			item.CostPrice = &c
		}
		if override.Valid {
			v := override.Float64
			item.MarginOverridePct = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListLosses(ctx context.Context, from time.Time, to time.Time) ([]domain.LossRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, item_name, quantity, reason, recorded_by, value
		FROM loss_records
		WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		ORDER BY occurred_at ASC, id ASC
	`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	losses := make([]domain.LossRecord, 0, 64)
	for rows.Next() {
		var loss domain.LossRecord
		if err := rows.Scan(&loss.ID, &loss.Timestamp, &loss.ItemName, &loss.Quantity, &loss.Reason, &loss.RecordedBy, &loss.Value); err != nil {
			return nil, err
		}
		loss.Timestamp = loss.Timestamp.UTC()
		losses = append(losses, loss)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return losses, nil
}

func (s *Store) InsertSales(ctx context.Context, records []domain.SaleRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, record := range records {
		if record.ID == "" {
			record.ID = xid.New("sale")
		}
		itemsJSON, err := json.Marshal(record.Items)
		if err != nil {
			return 0, fmt.Errorf("encode sale items for %s: %w", record.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales (id, cashier, occurred_at, total, status, items, refunded_by, refunded_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
			ON CONFLICT (id) DO UPDATE
			SET cashier = EXCLUDED.cashier, occurred_at = EXCLUDED.occurred_at, total = EXCLUDED.total,
			    status = EXCLUDED.status, items = EXCLUDED.items,
			    refunded_by = EXCLUDED.refunded_by, refunded_at = EXCLUDED.refunded_at
		`, record.ID, record.Cashier, record.Timestamp, record.Total, record.Status, itemsJSON,
			nullIfEmpty(record.RefundedBy), nullTimePtr(record.RefundedAt))
		if err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) InsertInventory(ctx context.Context, items []domain.InventoryItem) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, item := range items {
		if item.ID == "" {
			item.ID = xid.New("inv")
		}
		var cost any
		if item.CostPrice != nil {
			cost = *item.CostPrice
		}
		var override any
		if item.MarginOverridePct != nil {
			override = *item.MarginOverridePct
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_items (id, name, sku, category, stock, unit, price, cost_price, margin_override_pct, reorder_threshold, status, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, sku = EXCLUDED.sku, category = EXCLUDED.category,
			    stock = EXCLUDED.stock, unit = EXCLUDED.unit, price = EXCLUDED.price,
			    cost_price = EXCLUDED.cost_price, margin_override_pct = EXCLUDED.margin_override_pct,
			    reorder_threshold = EXCLUDED.reorder_threshold, status = EXCLUDED.status, updated_at = now()
		`, item.ID, item.Name, item.SKU, item.Category, item.Stock, item.Unit, item.Price, cost, override, item.ReorderThreshold, item.Status)
		if err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) InsertLosses(ctx context.Context, records []domain.LossRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, record := range records {
		if record.ID == "" {
			record.ID = xid.New("loss")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO loss_records (id, occurred_at, item_name, quantity, reason, recorded_by, value, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,now())
			ON CONFLICT (id) DO UPDATE
			SET occurred_at = EXCLUDED.occurred_at, item_name = EXCLUDED.item_name,
			    quantity = EXCLUDED.quantity, reason = EXCLUDED.reason,
			    recorded_by = EXCLUDED.recorded_by, value = EXCLUDED.value
		`, record.ID, record.Timestamp, record.ItemName, record.Quantity, record.Reason, record.RecordedBy, record.Value)
		if err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}

func nullTimePtr(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
