package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokodash/backend/internal/domain"
)

func costedItem(id string, name string, price string, cost string) domain.InventoryItem {
	c := decimal.RequireFromString(cost)
	return domain.InventoryItem{
		ID:        id,
		Name:      name,
		Category:  "Grocery",
		Price:     decimal.RequireFromString(price),
		CostPrice: &c,
	}
}

func saleWithLines(id string, status string, lines ...domain.SaleLineItem) domain.SaleRecord {
	return domain.SaleRecord{ID: id, Status: status, Items: lines}
}

func TestProfitabilityExcludesItemsWithoutCost(t *testing.T) {
	inventory := []domain.InventoryItem{
		costedItem("p1", "Kopi", "0.26", "0.13"),
		{ID: "p2", Name: "Coklat", Category: "Snack", Price: decimal.RequireFromString("0.86")},
	}
	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusCompleted,
			domain.SaleLineItem{ProductID: "p1", Quantity: 10},
			domain.SaleLineItem{ProductID: "p2", Quantity: 4},
		),
	}

	report := Profitability(sales, inventory)

	require.Len(t, report.Products, 1)
	assert.Equal(t, "p1", report.Products[0].ProductID)
	assert.Equal(t, 1, report.ItemsWithCost)
	assert.Equal(t, 1, report.ItemsWithoutCost)
	assert.Equal(t, []string{"Coklat"}, report.MissingCost)
}

func TestProfitabilityMathPerLine(t *testing.T) {
	inventory := []domain.InventoryItem{costedItem("p1", "Kopi", "0.30", "0.20")}
	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusCompleted, domain.SaleLineItem{ProductID: "p1", Quantity: 10}),
	}

	report := Profitability(sales, inventory)

	require.Len(t, report.Products, 1)
	product := report.Products[0]
	// (0.30 - 0.20) * 10
	assert.Equal(t, "1", product.Profit.String())
	assert.InDelta(t, 50.0, product.MarginPct, 0.001)
	assert.Equal(t, 10, product.UnitsSold)
}

func TestProfitabilityAverageMarginIsOccurrenceWeighted(t *testing.T) {
	inventory := []domain.InventoryItem{
		costedItem("p1", "A", "2.00", "1.00"), // 100% margin
		costedItem("p2", "B", "1.50", "1.00"), // 50% margin
	}
	// p1 sells in one line, p2 in one line: plain mean, not revenue-weighted.
	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusCompleted,
			domain.SaleLineItem{ProductID: "p1", Quantity: 100},
			domain.SaleLineItem{ProductID: "p2", Quantity: 1},
		),
	}

	report := Profitability(sales, inventory)
	assert.InDelta(t, 75.0, report.AverageMarginPct, 0.001)
}

func TestProfitabilityMarginOverrideReplacesComputedMargin(t *testing.T) {
	override := 12.5
	withOverride := costedItem("p1", "A", "2.00", "1.00")
	withOverride.MarginOverridePct = &override

	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusCompleted, domain.SaleLineItem{ProductID: "p1", Quantity: 2}),
	}

	report := Profitability(sales, []domain.InventoryItem{withOverride})

	require.Len(t, report.Products, 1)
	assert.InDelta(t, 12.5, report.Products[0].MarginPct, 0.001)
	// Profit math is untouched by the override: (2.00 - 1.00) * 2.
	assert.Equal(t, "2", report.Products[0].Profit.String())
}

func TestProfitabilitySkipsRefundedSalesAndBadQuantities(t *testing.T) {
	inventory := []domain.InventoryItem{costedItem("p1", "A", "2.00", "1.00")}
	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusRefunded, domain.SaleLineItem{ProductID: "p1", Quantity: 5}),
		saleWithLines("s2", domain.SaleStatusCompleted, domain.SaleLineItem{ProductID: "p1", Quantity: 0}),
	}

	report := Profitability(sales, inventory)
	assert.Empty(t, report.Products)
	assert.Zero(t, report.AverageMarginPct)
}

func TestProfitabilityRanksByProfitDescending(t *testing.T) {
	inventory := []domain.InventoryItem{
		costedItem("p1", "Small", "1.10", "1.00"),
		costedItem("p2", "Big", "5.00", "1.00"),
	}
	sales := []domain.SaleRecord{
		saleWithLines("s1", domain.SaleStatusCompleted,
			domain.SaleLineItem{ProductID: "p1", Quantity: 1},
			domain.SaleLineItem{ProductID: "p2", Quantity: 1},
		),
	}

	report := Profitability(sales, inventory)
	require.Len(t, report.Products, 2)
	assert.Equal(t, "Big", report.Products[0].Name)
}
