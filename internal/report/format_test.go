package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokodash/backend/internal/domain"
)

var generatedAt = time.Date(2024, 1, 8, 14, 5, 0, 0, time.UTC)

func TestBuildRowsAlwaysMatchHeaderWidth(t *testing.T) {
	refundedAt := time.Date(2024, 1, 7, 16, 0, 0, 0, time.UTC)
	batch := Batch{
		Sales: []domain.SaleRecord{
			{ID: "s1", Cashier: "sari", Timestamp: generatedAt, Total: decimal.RequireFromString("5.30"), Status: domain.SaleStatusCompleted},
			{ID: "s2", Status: domain.SaleStatusRefunded, RefundedAt: &refundedAt, Total: decimal.RequireFromString("3.78")},
		},
		Inventory: []domain.InventoryItem{
			{ID: "i1", SKU: "SKU-1", Name: "Kopi", Category: "Beverage", Stock: 10, Unit: "pcs", Price: decimal.RequireFromString("0.26"), Status: domain.InventoryStatusActive},
		},
		Losses: []domain.LossRecord{
			{ID: "l1", Timestamp: generatedAt, ItemName: "Roti", Quantity: 2, Reason: "Damaged", RecordedBy: "budi", Value: decimal.RequireFromString("3.56")},
		},
	}

	for _, reportType := range []Type{TypeSales, TypeInventory, TypeLosses, TypeLowStock, TypeRefunds, TypeDefault} {
		doc := Build(reportType, batch, generatedAt)
		require.NotEmpty(t, doc.Headers, "type %s", reportType)
		for i, row := range doc.Rows {
			assert.Len(t, row, len(doc.Headers), "type %s row %d", reportType, i)
		}
	}
}

func TestBuildSalesReportSchemaAndCells(t *testing.T) {
	batch := Batch{Sales: []domain.SaleRecord{
		{ID: "s1", Cashier: "sari", Timestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("10.00"), Status: domain.SaleStatusCompleted},
		{ID: "s2", Status: domain.SaleStatusCompleted}, // missing everything else
	}}

	doc := Build(TypeSales, batch, generatedAt)

	assert.Equal(t, []string{"ID", "Date", "Cashier", "Amount ($)", "Status"}, doc.Headers)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"s1", "2024-01-02", "sari", "10.00", "completed"}, doc.Rows[0])
	// Degraded cells, not a dropped row.
	assert.Equal(t, []string{"s2", "N/A", "N/A", "0.00", "completed"}, doc.Rows[1])
	assert.Equal(t, "10.00", doc.Summary["total_amount"])
}

func TestBuildRefundsFiltersToRefundedOnly(t *testing.T) {
	refundedAt := time.Date(2024, 1, 7, 16, 0, 0, 0, time.UTC)
	batch := Batch{Sales: []domain.SaleRecord{
		{ID: "s1", Cashier: "sari", Timestamp: generatedAt, Total: decimal.RequireFromString("5.00"), Status: domain.SaleStatusCompleted},
		{ID: "s2", Cashier: "budi", Timestamp: time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC), Total: decimal.RequireFromString("3.78"),
			Status: "Refunded", RefundedBy: "admin", RefundedAt: &refundedAt,
			Items: []domain.SaleLineItem{{ProductID: "p1", Quantity: 2}}},
	}}

	doc := Build(TypeRefunds, batch, generatedAt)

	assert.Equal(t, []string{"Transaction ID", "Refund Date", "Refunded By", "Original Cashier", "Amount ($)", "Items"}, doc.Headers)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, []string{"s2", "2024-01-07", "admin", "budi", "3.78", "2"}, doc.Rows[0])
	assert.Equal(t, "3.78", doc.Summary["total_refunded"])
}

func TestBuildRefundsFallsBackToSaleDateAndNA(t *testing.T) {
	batch := Batch{Sales: []domain.SaleRecord{
		{ID: "s1", Cashier: "sari", Timestamp: time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC),
			Total: decimal.RequireFromString("2.00"), Status: domain.SaleStatusRefunded},
	}}

	doc := Build(TypeRefunds, batch, generatedAt)

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "2024-01-06", doc.Rows[0][1], "refund date falls back to sale timestamp")
	assert.Equal(t, "N/A", doc.Rows[0][2], "missing refunded-by degrades to N/A")
}

func TestBuildLowStockDerivesStatus(t *testing.T) {
	batch := Batch{Inventory: []domain.InventoryItem{
		{ID: "i1", SKU: "SKU-1", Name: "Gula", Category: "Grocery", Stock: 3, ReorderThreshold: 10, Status: domain.InventoryStatusActive},
		{ID: "i2", SKU: "SKU-2", Name: "Kopi", Category: "Beverage", Stock: 100, ReorderThreshold: 10, Status: domain.InventoryStatusActive},
	}}

	doc := Build(TypeLowStock, batch, generatedAt)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, domain.InventoryStatusLowStock, doc.Rows[0][6])
	assert.Equal(t, domain.InventoryStatusActive, doc.Rows[1][6])
	assert.Equal(t, "1", doc.Summary["low_stock"])
}

func TestBuildEmptyBatchYieldsWellFormedDocument(t *testing.T) {
	doc := Build(TypeSales, Batch{}, generatedAt)

	assert.Equal(t, "Sales Report", doc.Title)
	assert.NotNil(t, doc.Rows)
	assert.Empty(t, doc.Rows)
	assert.Equal(t, "0", doc.Summary["transactions"])
	assert.Equal(t, "Generated 2024-01-08 14:05", doc.GeneratedAtLabel)
}

func TestBuildUnknownTypeUsesDefaultSchema(t *testing.T) {
	batch := Batch{
		Sales:  []domain.SaleRecord{{ID: "s1", Cashier: "sari", Total: decimal.RequireFromString("1.00")}},
		Losses: []domain.LossRecord{{ID: "l1", ItemName: "Roti", Value: decimal.RequireFromString("2.00")}},
	}

	doc := Build(ParseType("quarterly"), batch, generatedAt)

	assert.Equal(t, []string{"ID", "Name", "Value"}, doc.Headers)
	assert.Len(t, doc.Rows, 2)
	assert.Equal(t, "General Report", doc.Title)
}

func TestParseTypeNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, TypeSales, ParseType(" Sales "))
	assert.Equal(t, TypeLowStock, ParseType("LOW-STOCK"))
	assert.Equal(t, TypeDefault, ParseType("weird"))
}
