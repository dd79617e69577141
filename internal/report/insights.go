package report

import (
	"fmt"

	"tokodash/backend/internal/domain"
)

// TrendDeltaThresholdPct is the band around zero inside which the trend
// comparison rule stays silent. A ±10% dead zone keeps the dashboard from
// flagging ordinary day-to-day noise as a trend.
const TrendDeltaThresholdPct = 10.0

// InsightInputs are the pre-computed aggregates the heuristics read. The
// generator never goes back to raw records.
type InsightInputs struct {
	Categories  []domain.CategorySummary
	Statuses    []domain.StatusCount
	BestSellers []domain.ProductSales
	Trend       []domain.TrendBucket
}

// Insights evaluates a fixed rule set over the aggregates, in a fixed order.
// Rules fire independently: any subset may match, and a rule whose
// preconditions are unmet emits nothing. Identical inputs always produce
// identical output.
func Insights(in InsightInputs) []domain.Insight {
	insights := make([]domain.Insight, 0, 4)

	if len(in.Categories) > 0 && in.Categories[0].Percent > 0 {
		top := in.Categories[0]
		insights = append(insights, domain.Insight{
			Text: fmt.Sprintf("%s holds %.1f%% of your inventory value.", top.Category, top.Percent),
			Facts: map[string]float64{
				"percent": top.Percent,
				"count":   float64(top.Count),
			},
		})
	}

	for _, status := range in.Statuses {
		if status.Status == domain.InventoryStatusLowStock && status.Count > 0 {
			insights = append(insights, domain.Insight{
				Text:  fmt.Sprintf("%d item(s) are low on stock and may need restocking.", status.Count),
				Facts: map[string]float64{"low_stock_count": float64(status.Count)},
			})
			break
		}
	}

	if len(in.BestSellers) > 0 && in.BestSellers[0].Units > 0 {
		best := in.BestSellers[0]
		insights = append(insights, domain.Insight{
			Text:  fmt.Sprintf("%s is your best seller with %d unit(s) sold.", best.Name, best.Units),
			Facts: map[string]float64{"units": float64(best.Units)},
		})
	}

	// Fewer than two trend points disables the comparison entirely, and a
	// zero previous bucket would make the percentage undefined.
	if len(in.Trend) >= 2 {
		previous := in.Trend[len(in.Trend)-2].Amount
		latest := in.Trend[len(in.Trend)-1].Amount
		if previous.Sign() > 0 {
			changePct := latest.Sub(previous).Div(previous).InexactFloat64() * 100
			facts := map[string]float64{"change_pct": changePct}
			switch {
			case changePct > TrendDeltaThresholdPct:
				insights = append(insights, domain.Insight{
					Text:  fmt.Sprintf("Sales are up %.1f%% versus the previous period.", changePct),
					Facts: facts,
				})
			case changePct < -TrendDeltaThresholdPct:
				insights = append(insights, domain.Insight{
					Text:  fmt.Sprintf("Sales are down %.1f%% versus the previous period.", -changePct),
					Facts: facts,
				})
			}
		}
	}

	return insights
}
