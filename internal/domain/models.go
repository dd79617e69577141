package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw transactional records. These are immutable snapshots handed to the
// aggregation engine; nothing downstream mutates them.

type SaleLineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleRecord struct {
	ID         string          `json:"id"`
	Cashier    string          `json:"cashier"`
	Timestamp  time.Time       `json:"timestamp"`
	Total      decimal.Decimal `json:"total"`
	Status     string          `json:"status"`
	Items      []SaleLineItem  `json:"items"`
	RefundedBy string          `json:"refunded_by,omitempty"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}

type InventoryItem struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	SKU               string           `json:"sku"`
	Category          string           `json:"category"`
	Stock             int              `json:"stock"`
	Unit              string           `json:"unit"`
	Price             decimal.Decimal  `json:"price"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	MarginOverridePct *float64         `json:"margin_override_pct,omitempty"`
	ReorderThreshold  int              `json:"reorder_threshold"`
	Status            string           `json:"status"`
}

type LossRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	Reason     string          `json:"reason"`
	RecordedBy string          `json:"recorded_by"`
	Value      decimal.Decimal `json:"value"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusRefunded  = "refunded"

	InventoryStatusActive   = "Active"
	InventoryStatusLowStock = "Low Stock"
)

// Derived views produced by the aggregation engine.

// TrendBucket is one calendar-aligned aggregation unit. Key is a zero-padded
// ISO date ("2024-01-02") or month ("2024-01"), so lexicographic order is
// chronological order.
type TrendBucket struct {
	Key          string          `json:"key"`
	Amount       decimal.Decimal `json:"amount"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Transactions int             `json:"transactions"`
	Items        int             `json:"items"`
}

type CategorySummary struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Value    decimal.Decimal `json:"value"`
	Percent  float64         `json:"percent"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ProductProfit struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitsSold int             `json:"units_sold"`
	Profit    decimal.Decimal `json:"profit"`
	MarginPct float64         `json:"margin_pct"`
}

type CategoryProfit struct {
	Category  string          `json:"category"`
	UnitsSold int             `json:"units_sold"`
	Profit    decimal.Decimal `json:"profit"`
}

// ProfitReport carries the profitability view plus the cost-coverage facts
// the caller needs to prompt remediation for items missing cost data.
type ProfitReport struct {
	Products         []ProductProfit  `json:"products"`
	Categories       []CategoryProfit `json:"categories"`
	AverageMarginPct float64          `json:"average_margin_pct"`
	ItemsWithCost    int              `json:"items_with_cost"`
	ItemsWithoutCost int              `json:"items_without_cost"`
	MissingCost      []string         `json:"missing_cost,omitempty"`
}

type ProductSales struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Insight is a derived observation plus the numeric facts that produced it,
// kept so tests can assert against the inputs and not just the prose.
type Insight struct {
	Text  string             `json:"text"`
	Facts map[string]float64 `json:"facts,omitempty"`
}

// ReportDocument is the export-ready tabular form of one report type:
// a fixed header schema, string rows matching it, and a small summary for
// the document's header area.
type ReportDocument struct {
	Type             string            `json:"type"`
	Title            string            `json:"title"`
	Headers          []string          `json:"headers"`
	Rows             [][]string        `json:"rows"`
	Summary          map[string]string `json:"summary"`
	GeneratedAt      time.Time         `json:"generated_at"`
	GeneratedAtLabel string            `json:"generated_at_label"`
}

type ExportResult struct {
	FileName string         `json:"file_name"`
	Format   string         `json:"format"`
	States   []string       `json:"states"`
	Document ReportDocument `json:"document"`
}

type ImportResult struct {
	Kind     string `json:"kind"`
	Received int    `json:"received"`
	Imported int    `json:"imported"`
	Dropped  int    `json:"dropped"`
}

// DashboardSnapshot is the cached payload behind the dashboard endpoint.
type DashboardSnapshot struct {
	Trend       []TrendBucket     `json:"trend"`
	Categories  []CategorySummary `json:"categories"`
	TopProducts []ProductProfit   `json:"top_products"`
	BestSellers []ProductSales    `json:"best_sellers"`
	Insights    []Insight         `json:"insights"`
	GeneratedAt string            `json:"generated_at"`
}

// Auth / accounts.

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type ViewerCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ViewerUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
