package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"tokodash/backend/internal/domain"
)

// CategorySummaries groups inventory by category, accumulating item count and
// stock value (price × stock). Percent is each category's share of the grand
// total of the supplied slice — always the filtered input's total, never a
// stale global one — and 0 when the grand total is 0. Output is descending
// by value; ties keep first-encounter order (stable sort).
func CategorySummaries(items []domain.InventoryItem) []domain.CategorySummary {
	summaries := make([]domain.CategorySummary, 0, 16)
	index := make(map[string]int, 16)
	total := decimal.Zero

	for _, item := range items {
		value := item.Price.Mul(decimal.NewFromInt(int64(item.Stock)))
		at, ok := index[item.Category]
		if !ok {
			at = len(summaries)
			index[item.Category] = at
			summaries = append(summaries, domain.CategorySummary{Category: item.Category})
		}
		summaries[at].Count++
		summaries[at].Value = summaries[at].Value.Add(value)
		total = total.Add(value)
	}

	if total.Sign() > 0 {
		for i := range summaries {
			summaries[i].Percent = summaries[i].Value.InexactFloat64() / total.InexactFloat64() * 100
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Value.Cmp(summaries[j].Value) > 0
	})

	return summaries
}

// StatusCounts tallies inventory by effective status. An item whose stock is
// at or below its reorder threshold counts as "Low Stock" even when its
// stored status has not caught up yet. First-encounter order is preserved.
func StatusCounts(items []domain.InventoryItem) []domain.StatusCount {
	counts := make([]domain.StatusCount, 0, 8)
	index := make(map[string]int, 8)

	for _, item := range items {
		status := EffectiveStatus(item)
		at, ok := index[status]
		if !ok {
			at = len(counts)
			index[status] = at
			counts = append(counts, domain.StatusCount{Status: status})
		}
		counts[at].Count++
	}

	return counts
}

// EffectiveStatus derives the status a dashboard should display: the stored
// status unless the reorder threshold says the item is low on stock.
func EffectiveStatus(item domain.InventoryItem) string {
	if item.Status == domain.InventoryStatusLowStock {
		return domain.InventoryStatusLowStock
	}
	if item.ReorderThreshold > 0 && item.Stock <= item.ReorderThreshold {
		return domain.InventoryStatusLowStock
	}
	return item.Status
}

// BestSellers ranks products by units sold across all non-refunded sales,
// descending, ties in first-encounter order. Revenue is the summed line
// subtotals.
func BestSellers(sales []domain.SaleRecord) []domain.ProductSales {
	ranked := make([]domain.ProductSales, 0, 32)
	index := make(map[string]int, 32)

	for _, sale := range sales {
		if isRefunded(sale) {
			continue
		}
		for _, item := range sale.Items {
			key := item.ProductID
			if key == "" {
				key = item.Name
			}
			if key == "" {
				continue
			}
			at, ok := index[key]
			if !ok {
				at = len(ranked)
				index[key] = at
				ranked = append(ranked, domain.ProductSales{ProductID: item.ProductID, Name: item.Name})
			}
			ranked[at].Units += item.Quantity
			ranked[at].Revenue = ranked[at].Revenue.Add(item.Subtotal)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Units > ranked[j].Units
	})

	return ranked
}

// TopN truncates a ranked slice to at most n entries without re-sorting.
func TopN[T any](ranked []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}
