// Package report is the aggregation engine behind the dashboard: pure,
// deterministic transforms from raw transactional records to time-bucketed
// trends, category and profitability summaries, heuristic insights, and
// export-ready tabular reports. Nothing in this package performs I/O or
// reads an ambient clock.
package report

import (
	"strings"
	"time"

	"tokodash/backend/internal/domain"
)

// Period selects the trailing window a trend series covers.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// ParsePeriod maps a request token to a Period, defaulting to week.
func ParsePeriod(raw string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodMonth:
		return PeriodMonth
	case PeriodYear:
		return PeriodYear
	default:
		return PeriodWeek
	}
}

// SalesTrend buckets sales into calendar units over the trailing window
// ending at now. Every unit in the window is present in the output, zero
// valued when nothing happened that unit, so a chart always has axes to
// render. Refunded sales accumulate into RefundAmount in the bucket of the
// refunded transaction's own date; they never pollute the gross Amount.
// Window-level net sales is Σ Amount − Σ RefundAmount over the same window,
// never a cross-window subtraction.
//
// Output is ascending by bucket key. Keys are zero-padded ISO dates, so
// lexicographic order is chronological and no date parsing is needed to
// sort them.
func SalesTrend(sales []domain.SaleRecord, period Period, now time.Time) []domain.TrendBucket {
	buckets, index, keyFor := seedBuckets(period, now)

	for _, sale := range sales {
		if sale.Timestamp.IsZero() {
			continue
		}
		key := keyFor(sale.Timestamp)
		at, ok := index[key]
		if !ok {
			continue
		}
		bucket := &buckets[at]
		if strings.EqualFold(sale.Status, domain.SaleStatusRefunded) {
			bucket.RefundAmount = bucket.RefundAmount.Add(sale.Total)
		} else {
			bucket.Amount = bucket.Amount.Add(sale.Total)
		}
		bucket.Transactions++
		for _, item := range sale.Items {
			bucket.Items += item.Quantity
		}
	}

	return buckets
}

// LossTrend buckets loss events the same way; losses have no refund side, so
// only Amount accumulates.
func LossTrend(losses []domain.LossRecord, period Period, now time.Time) []domain.TrendBucket {
	buckets, index, keyFor := seedBuckets(period, now)

	for _, loss := range losses {
		if loss.Timestamp.IsZero() {
			continue
		}
		at, ok := index[keyFor(loss.Timestamp)]
		if !ok {
			continue
		}
		bucket := &buckets[at]
		bucket.Amount = bucket.Amount.Add(loss.Value)
		bucket.Transactions++
		bucket.Items += loss.Quantity
	}

	return buckets
}

// seedBuckets enumerates every calendar unit in [start, now] and pre-seeds a
// zero bucket for each, returning the ascending series, a key index, and the
// truncation function for folding records in.
func seedBuckets(period Period, now time.Time) ([]domain.TrendBucket, map[string]int, func(time.Time) string) {
	now = now.UTC()

	var start time.Time
	layout := dayKeyLayout
	step := func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

	switch period {
	case PeriodYear:
		// Month granularity: enumerate first-of-month dates so the walk is
		// immune to time.AddDate's end-of-month normalization.
		start = time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, time.UTC)
		layout = monthKeyLayout
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
		now = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodMonth:
		start = truncateDay(now.AddDate(0, -1, 0))
	default:
		start = truncateDay(now.AddDate(0, 0, -7))
	}

	buckets := make([]domain.TrendBucket, 0, 32)
	index := make(map[string]int, 32)
	for cursor := start; !cursor.After(now); cursor = step(cursor) {
		key := cursor.Format(layout)
		index[key] = len(buckets)
		buckets = append(buckets, domain.TrendBucket{Key: key})
	}

	keyFor := func(t time.Time) string { return t.UTC().Format(layout) }
	return buckets, index, keyFor
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
