package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
)

// Sentinel cells for fields that cannot be formatted. A bad field degrades
// its own cell, never the row, and a bad row never aborts the report.
const (
	cellUnavailable = "N/A"
	cellZeroAmount  = "0.00"
)

// Batch is the raw record snapshot a report is built from. Only the slice a
// report type reads needs to be populated.
type Batch struct {
	Sales     []domain.SaleRecord
	Inventory []domain.InventoryItem
	Losses    []domain.LossRecord
}

// Empty reports whether the batch holds no records at all — the
// user-visible "no data available" condition, as opposed to all rows being
// filtered out.
func (b Batch) Empty() bool {
	return len(b.Sales) == 0 && len(b.Inventory) == 0 && len(b.Losses) == 0
}

// relevant returns the record count the given report type can draw from.
func (b Batch) relevant(t Type) int {
	switch t {
	case TypeSales, TypeRefunds:
		return len(b.Sales)
	case TypeInventory, TypeLowStock:
		return len(b.Inventory)
	case TypeLosses:
		return len(b.Losses)
	default:
		return len(b.Sales) + len(b.Inventory) + len(b.Losses)
	}
}

// Build maps a record batch into the export-ready document for a report
// type. It is a total function: any batch, including an empty one, yields a
// well-formed document with the fixed header schema and zero or more rows.
// Only the refunds type filters records; every other known type passes all
// structurally valid records through — a documented simplification carried
// over from the dashboard this engine serves.
func Build(t Type, batch Batch, generatedAt time.Time) domain.ReportDocument {
	doc := domain.ReportDocument{
		Type:             string(t),
		Title:            Title(t),
		Headers:          Headers(t),
		Rows:             [][]string{},
		Summary:          map[string]string{},
		GeneratedAt:      generatedAt.UTC(),
		GeneratedAtLabel: "Generated " + generatedAt.UTC().Format("2006-01-02 15:04"),
	}

	switch t {
	case TypeSales:
		buildSales(&doc, batch.Sales)
	case TypeInventory:
		buildInventory(&doc, batch.Inventory)
	case TypeLosses:
		buildLosses(&doc, batch.Losses)
	case TypeLowStock:
		buildLowStock(&doc, batch.Inventory)
	case TypeRefunds:
		buildRefunds(&doc, batch.Sales)
	default:
		buildDefault(&doc, batch)
	}

	return doc
}

func buildSales(doc *domain.ReportDocument, sales []domain.SaleRecord) {
	total := decimal.Zero
	refunded := 0
	for _, sale := range sales {
		doc.Rows = append(doc.Rows, []string{
			cellText(sale.ID),
			cellDate(sale.Timestamp),
			cellText(sale.Cashier),
			cellAmount(sale.Total),
			cellText(sale.Status),
		})
		if isRefunded(sale) {
			refunded++
		} else {
			total = total.Add(sale.Total)
		}
	}
	doc.Summary["transactions"] = strconv.Itoa(len(sales))
	doc.Summary["total_amount"] = total.StringFixed(2)
	doc.Summary["refunded_count"] = strconv.Itoa(refunded)
}

func buildInventory(doc *domain.ReportDocument, items []domain.InventoryItem) {
	total := decimal.Zero
	categories := map[string]struct{}{}
	for _, item := range items {
		doc.Rows = append(doc.Rows, []string{
			cellText(item.ID),
			cellText(item.SKU),
			cellText(item.Name),
			cellText(item.Category),
			strconv.Itoa(item.Stock),
			cellText(item.Unit),
			cellAmount(item.Price),
			cellText(EffectiveStatus(item)),
		})
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Stock))))
		categories[item.Category] = struct{}{}
	}
	doc.Summary["items"] = strconv.Itoa(len(items))
	doc.Summary["total_value"] = total.StringFixed(2)
	doc.Summary["categories"] = strconv.Itoa(len(categories))
}

func buildLosses(doc *domain.ReportDocument, losses []domain.LossRecord) {
	total := decimal.Zero
	reasons := map[string]struct{}{}
	for _, loss := range losses {
		doc.Rows = append(doc.Rows, []string{
			cellText(loss.ID),
			cellDate(loss.Timestamp),
			cellText(loss.ItemName),
			strconv.Itoa(loss.Quantity),
			cellText(loss.Reason),
			cellText(loss.RecordedBy),
			cellAmount(loss.Value),
		})
		total = total.Add(loss.Value)
		reasons[loss.Reason] = struct{}{}
	}
	doc.Summary["entries"] = strconv.Itoa(len(losses))
	doc.Summary["total_value"] = total.StringFixed(2)
	doc.Summary["reasons"] = strconv.Itoa(len(reasons))
}

func buildLowStock(doc *domain.ReportDocument, items []domain.InventoryItem) {
	low := 0
	for _, item := range items {
		status := EffectiveStatus(item)
		if status == domain.InventoryStatusLowStock {
			low++
		}
		doc.Rows = append(doc.Rows, []string{
			cellText(item.ID),
			cellText(item.SKU),
			cellText(item.Name),
			cellText(item.Category),
			strconv.Itoa(item.Stock),
			strconv.Itoa(item.ReorderThreshold),
			cellText(status),
		})
	}
	doc.Summary["items"] = strconv.Itoa(len(items))
	doc.Summary["low_stock"] = strconv.Itoa(low)
}

func buildRefunds(doc *domain.ReportDocument, sales []domain.SaleRecord) {
	total := decimal.Zero
	for _, sale := range sales {
		if !isRefunded(sale) {
			continue
		}
		refundDate := sale.Timestamp
		if sale.RefundedAt != nil {
			refundDate = *sale.RefundedAt
		}
		itemCount := 0
		for _, item := range sale.Items {
			itemCount += item.Quantity
		}
		doc.Rows = append(doc.Rows, []string{
			cellText(sale.ID),
			cellDate(refundDate),
			cellText(sale.RefundedBy),
			cellText(sale.Cashier),
			cellAmount(sale.Total),
			strconv.Itoa(itemCount),
		})
		total = total.Add(sale.Total)
	}
	doc.Summary["refunds"] = strconv.Itoa(len(doc.Rows))
	doc.Summary["total_refunded"] = total.StringFixed(2)
}

// buildDefault renders whatever the batch holds through the generic
// ID/Name/Value schema, in sales → inventory → losses order.
func buildDefault(doc *domain.ReportDocument, batch Batch) {
	for _, sale := range batch.Sales {
		doc.Rows = append(doc.Rows, []string{cellText(sale.ID), cellText(sale.Cashier), cellAmount(sale.Total)})
	}
	for _, item := range batch.Inventory {
		doc.Rows = append(doc.Rows, []string{cellText(item.ID), cellText(item.Name), cellAmount(item.Price)})
	}
	for _, loss := range batch.Losses {
		doc.Rows = append(doc.Rows, []string{cellText(loss.ID), cellText(loss.ItemName), cellAmount(loss.Value)})
	}
	doc.Summary["records"] = strconv.Itoa(len(doc.Rows))
}

func cellText(value string) string {
	if value == "" {
		return cellUnavailable
	}
	return value
}

func cellDate(t time.Time) string {
	if t.IsZero() {
		return cellUnavailable
	}
	return t.UTC().Format("2006-01-02")
}

func cellAmount(value decimal.Decimal) string {
	if value.IsZero() {
		return cellZeroAmount
	}
	return value.StringFixed(2)
}
