// Package normalize coerces heterogeneous, partially-malformed input records
// into well-typed domain values. It is the only place that deals with
// "is this field present" questions; everything downstream of it works on
// fully-populated records.
//
// All functions are total: malformed fields are coerced to safe defaults and
// unrecoverable records are dropped from the batch, never surfaced as errors.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
)

// Sentinel defaults for absent classification fields.
const (
	DefaultCategory = "Uncategorized"
	DefaultStatus   = domain.InventoryStatusActive
	DefaultReason   = "Unknown"
)

// Sales normalizes a batch of loosely-shaped sale records. Records with no
// recoverable identity and no data are silently excluded.
func Sales(raw []any) []domain.SaleRecord {
	sales := make([]domain.SaleRecord, 0, len(raw))
	for _, entry := range raw {
		if sale, ok := Sale(entry); ok {
			sales = append(sales, sale)
		}
	}
	return sales
}

func Sale(raw any) (domain.SaleRecord, bool) {
	fields, ok := asObject(raw)
	if !ok {
		return domain.SaleRecord{}, false
	}

	sale := domain.SaleRecord{
		ID:         asString(pick(fields, "id", "transaction_id", "transactionId")),
		Cashier:    asString(pick(fields, "cashier", "cashier_name", "cashierName")),
		Timestamp:  asTime(pick(fields, "timestamp", "date", "created_at", "createdAt")),
		Total:      asDecimal(pick(fields, "total", "amount", "total_amount", "totalAmount")),
		Status:     strings.TrimSpace(asString(fields["status"])),
		RefundedBy: asString(pick(fields, "refunded_by", "refundedBy")),
	}
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}
	if at := asTime(pick(fields, "refunded_at", "refundedAt", "refund_date", "refundDate")); !at.IsZero() {
		sale.RefundedAt = &at
	}

	// Missing line-item collections are treated as empty, not missing.
	sale.Items = saleItems(pick(fields, "items", "line_items", "lineItems"))

	if sale.ID == "" && sale.Total.IsZero() && len(sale.Items) == 0 && sale.Timestamp.IsZero() {
		return domain.SaleRecord{}, false
	}
	return sale, true
}

func saleItems(raw any) []domain.SaleLineItem {
	entries, ok := raw.([]any)
	if !ok {
		return []domain.SaleLineItem{}
	}

	items := make([]domain.SaleLineItem, 0, len(entries))
	for _, entry := range entries {
		fields, ok := asObject(entry)
		if !ok {
			continue
		}
		item := domain.SaleLineItem{
			ProductID: asString(pick(fields, "product_id", "productId", "id")),
			Name:      asString(fields["name"]),
			Quantity:  asInt(pick(fields, "quantity", "qty")),
			UnitPrice: asDecimal(pick(fields, "unit_price", "unitPrice", "price")),
			Subtotal:  asDecimal(pick(fields, "subtotal", "line_subtotal", "lineSubtotal")),
		}
		if item.Quantity < 0 {
			item.Quantity = 0
		}
		if item.Subtotal.IsZero() && item.Quantity > 0 {
			item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		items = append(items, item)
	}
	return items
}

// Inventory normalizes a batch of loosely-shaped inventory records.
func Inventory(raw []any) []domain.InventoryItem {
	items := make([]domain.InventoryItem, 0, len(raw))
	for _, entry := range raw {
		if item, ok := InventoryRecord(entry); ok {
			items = append(items, item)
		}
	}
	return items
}

func InventoryRecord(raw any) (domain.InventoryItem, bool) {
	fields, ok := asObject(raw)
	if !ok {
		return domain.InventoryItem{}, false
	}

	item := domain.InventoryItem{
		ID:               asString(fields["id"]),
		Name:             asString(fields["name"]),
		SKU:              strings.ToUpper(asString(fields["sku"])),
		Category:         strings.TrimSpace(asString(fields["category"])),
		Stock:            asInt(pick(fields, "stock", "quantity", "stock_quantity", "stockQuantity")),
		Unit:             asString(fields["unit"]),
		Price:            asDecimal(pick(fields, "price", "sale_price", "salePrice")),
		ReorderThreshold: asInt(pick(fields, "reorder_threshold", "reorderThreshold", "threshold")),
		Status:           strings.TrimSpace(asString(fields["status"])),
	}
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	if item.Status == "" {
		item.Status = DefaultStatus
	}
	if item.Stock < 0 {
		item.Stock = 0
	}
	if cost, present := optionalDecimal(pick(fields, "cost_price", "costPrice", "cost")); present {
		item.CostPrice = &cost
	}
	if margin, present := optionalFloat(pick(fields, "margin_override_pct", "marginOverridePct", "profit_margin", "profitMargin")); present {
		item.MarginOverridePct = &margin
	}

	if item.ID == "" && item.Name == "" && item.SKU == "" {
		return domain.InventoryItem{}, false
	}
	return item, true
}

// Losses normalizes a batch of loosely-shaped loss records.
func Losses(raw []any) []domain.LossRecord {
	losses := make([]domain.LossRecord, 0, len(raw))
	for _, entry := range raw {
		if loss, ok := Loss(entry); ok {
			losses = append(losses, loss)
		}
	}
	return losses
}

func Loss(raw any) (domain.LossRecord, bool) {
	fields, ok := asObject(raw)
	if !ok {
		return domain.LossRecord{}, false
	}

	loss := domain.LossRecord{
		ID:         asString(fields["id"]),
		Timestamp:  asTime(pick(fields, "timestamp", "date")),
		ItemName:   asString(pick(fields, "item_name", "itemName", "name")),
		Quantity:   asInt(fields["quantity"]),
		Reason:     strings.TrimSpace(asString(fields["reason"])),
		RecordedBy: asString(pick(fields, "recorded_by", "recordedBy")),
		Value:      asDecimal(fields["value"]),
	}
	if loss.Reason == "" {
		loss.Reason = DefaultReason
	}
	if loss.Quantity < 0 {
		loss.Quantity = 0
	}

	if loss.ID == "" && loss.ItemName == "" && loss.Value.IsZero() {
		return domain.LossRecord{}, false
	}
	return loss, true
}

func asObject(raw any) (map[string]any, bool) {
	fields, ok := raw.(map[string]any)
	if !ok || fields == nil {
		return nil, false
	}
	return fields, true
}

// pick returns the first present key, so records from older exports with
// camelCase fields normalize the same as snake_case ones.
func pick(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := fields[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func asString(raw any) string {
	switch value := raw.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return ""
	}
}

// asDecimal accepts numbers and numeric-looking text; anything else falls
// back to zero rather than failing the record.
func asDecimal(raw any) decimal.Decimal {
	value, _ := optionalDecimal(raw)
	return value
}

func optionalDecimal(raw any) (decimal.Decimal, bool) {
	switch value := raw.(type) {
	case float64:
		return decimal.NewFromFloat(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return decimal.Zero, false
		}
		parsed, err := decimal.NewFromString(trimmed)
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	case decimal.Decimal:
		return value, true
	default:
		return decimal.Zero, false
	}
}

func optionalFloat(raw any) (float64, bool) {
	value, present := optionalDecimal(raw)
	if !present {
		return 0, false
	}
	return value.InexactFloat64(), true
}

func asInt(raw any) int {
	value, present := optionalDecimal(raw)
	if !present {
		return 0
	}
	return int(value.IntPart())
}

// timeLayouts are tried in order; the first match wins. Unparsable
// timestamps come back as the zero time and are skipped by the bucketing
// layer rather than failing the batch.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(raw any) time.Time {
	switch value := raw.(type) {
	case time.Time:
		return value.UTC()
	case string:
		trimmed := strings.TrimSpace(value)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC()
			}
		}
	case float64:
		// Epoch milliseconds, the way browser-side exports serialize dates.
		if value > 1e11 {
			return time.UnixMilli(int64(value)).UTC()
		}
		if value > 0 {
			return time.Unix(int64(value), 0).UTC()
		}
	}
	return time.Time{}
}
