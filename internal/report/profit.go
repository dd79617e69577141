package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
)

// Profitability joins sale line items against inventory and accumulates
// profit per product and per category.
//
// Per matched line item with a defined cost price:
//
//	profit = (price − cost) × quantity
//	margin = (price − cost) / cost × 100
//
// Inventory items without a cost price are excluded from every profit and
// margin figure — never zero-filled — and enumerated in MissingCost so the
// caller can prompt remediation. AverageMarginPct is the arithmetic mean of
// the line-item margins actually computed: occurrence-weighted, not
// revenue-weighted, deliberately, to keep the metric simple and explainable.
// An item's explicit margin override, when present, replaces the computed
// margin but not the profit math.
func Profitability(sales []domain.SaleRecord, inventory []domain.InventoryItem) domain.ProfitReport {
	report := domain.ProfitReport{
		Products:   make([]domain.ProductProfit, 0, len(inventory)),
		Categories: make([]domain.CategoryProfit, 0, 16),
	}

	byID := make(map[string]domain.InventoryItem, len(inventory))
	for _, item := range inventory {
		if hasCost(item) {
			report.ItemsWithCost++
		} else {
			report.ItemsWithoutCost++
			report.MissingCost = append(report.MissingCost, displayName(item))
		}
		if item.ID != "" {
			byID[item.ID] = item
		}
	}

	productIndex := make(map[string]int, len(inventory))
	categoryIndex := make(map[string]int, 16)
	marginSum := 0.0
	marginCount := 0

	for _, sale := range sales {
		if isRefunded(sale) {
			continue
		}
		for _, line := range sale.Items {
			item, ok := byID[line.ProductID]
			if !ok || !hasCost(item) || line.Quantity < 1 {
				continue
			}

			cost := *item.CostPrice
			spread := item.Price.Sub(cost)
			profit := spread.Mul(decimal.NewFromInt(int64(line.Quantity)))
			margin := spread.Div(cost).InexactFloat64() * 100
			if item.MarginOverridePct != nil {
				margin = *item.MarginOverridePct
			}
			marginSum += margin
			marginCount++

			at, seen := productIndex[item.ID]
			if !seen {
				at = len(report.Products)
				productIndex[item.ID] = at
				report.Products = append(report.Products, domain.ProductProfit{
					ProductID: item.ID,
					Name:      displayName(item),
					Category:  item.Category,
					MarginPct: margin,
				})
			}
			report.Products[at].UnitsSold += line.Quantity
			report.Products[at].Profit = report.Products[at].Profit.Add(profit)

			catAt, seen := categoryIndex[item.Category]
			if !seen {
				catAt = len(report.Categories)
				categoryIndex[item.Category] = catAt
				report.Categories = append(report.Categories, domain.CategoryProfit{Category: item.Category})
			}
			report.Categories[catAt].UnitsSold += line.Quantity
			report.Categories[catAt].Profit = report.Categories[catAt].Profit.Add(profit)
		}
	}

	if marginCount > 0 {
		report.AverageMarginPct = marginSum / float64(marginCount)
	}

	sort.SliceStable(report.Products, func(i, j int) bool {
		return report.Products[i].Profit.Cmp(report.Products[j].Profit) > 0
	})
	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Profit.Cmp(report.Categories[j].Profit) > 0
	})

	return report
}

// hasCost reports whether profit math is defined for the item. A zero or
// negative cost price makes the margin division meaningless, so it counts
// as missing.
func hasCost(item domain.InventoryItem) bool {
	return item.CostPrice != nil && item.CostPrice.Sign() > 0
}

func displayName(item domain.InventoryItem) string {
	if item.Name != "" {
		return item.Name
	}
	if item.SKU != "" {
		return item.SKU
	}
	return item.ID
}

func isRefunded(sale domain.SaleRecord) bool {
	return strings.EqualFold(sale.Status, domain.SaleStatusRefunded)
}
