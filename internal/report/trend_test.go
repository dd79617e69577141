package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokodash/backend/internal/domain"
)

func saleAt(id string, ts time.Time, total string, status string) domain.SaleRecord {
	amount, err := decimal.NewFromString(total)
	if err != nil {
		panic(err)
	}
	return domain.SaleRecord{ID: id, Cashier: "sari", Timestamp: ts, Total: amount, Status: status}
}

func TestSalesTrendWeekIsContiguousAndZeroFilled(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 30, 0, 0, time.UTC)

	buckets := SalesTrend(nil, PeriodWeek, now)

	require.Len(t, buckets, 8)
	assert.Equal(t, "2024-01-01", buckets[0].Key)
	assert.Equal(t, "2024-01-08", buckets[7].Key)
	for i, bucket := range buckets {
		assert.True(t, bucket.Amount.IsZero(), "bucket %d amount", i)
		assert.True(t, bucket.RefundAmount.IsZero(), "bucket %d refund", i)
		assert.Zero(t, bucket.Transactions, "bucket %d transactions", i)
		if i > 0 {
			assert.Less(t, buckets[i-1].Key, bucket.Key, "keys must sort chronologically")
		}
	}
}

func TestSalesTrendSeparatesRefundsFromGross(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	sales := []domain.SaleRecord{
		saleAt("s1", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), "10.00", domain.SaleStatusCompleted),
		saleAt("s2", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "4.50", "REFUNDED"),
		saleAt("s3", time.Date(2024, 1, 5, 11, 0, 0, 0, time.UTC), "7.25", domain.SaleStatusCompleted),
	}

	buckets := SalesTrend(sales, PeriodWeek, now)

	byKey := map[string]domain.TrendBucket{}
	for _, bucket := range buckets {
		byKey[bucket.Key] = bucket
	}

	jan2 := byKey["2024-01-02"]
	assert.Equal(t, "10", jan2.Amount.String())
	assert.Equal(t, "4.5", jan2.RefundAmount.String())
	assert.Equal(t, 2, jan2.Transactions)

	jan5 := byKey["2024-01-05"]
	assert.Equal(t, "7.25", jan5.Amount.String())
	assert.True(t, jan5.RefundAmount.IsZero())
}

func TestSalesTrendSkipsRecordsOutsideWindow(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	sales := []domain.SaleRecord{
		saleAt("old", time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC), "99.00", domain.SaleStatusCompleted),
		saleAt("zero", time.Time{}, "12.00", domain.SaleStatusCompleted),
	}

	buckets := SalesTrend(sales, PeriodWeek, now)
	for _, bucket := range buckets {
		assert.True(t, bucket.Amount.IsZero(), "out-of-window record leaked into %s", bucket.Key)
	}
}

func TestSalesTrendYearUsesThirteenMonthBuckets(t *testing.T) {
	now := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)

	buckets := SalesTrend(nil, PeriodYear, now)

	require.Len(t, buckets, 13)
	assert.Equal(t, "2023-03", buckets[0].Key)
	assert.Equal(t, "2024-03", buckets[12].Key)
}

func TestSalesTrendIsDeterministic(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	sales := []domain.SaleRecord{
		saleAt("s1", time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), "3.00", domain.SaleStatusCompleted),
	}

	first := SalesTrend(sales, PeriodWeek, now)
	second := SalesTrend(sales, PeriodWeek, now)
	assert.Equal(t, first, second)
}

func TestLossTrendAccumulatesValueAndQuantity(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	losses := []domain.LossRecord{
		{ID: "l1", Timestamp: time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC), Quantity: 3, Value: decimal.RequireFromString("5.34")},
		{ID: "l2", Timestamp: time.Date(2024, 1, 4, 19, 0, 0, 0, time.UTC), Quantity: 1, Value: decimal.RequireFromString("0.86")},
	}

	buckets := LossTrend(losses, PeriodWeek, now)
	byKey := map[string]domain.TrendBucket{}
	for _, bucket := range buckets {
		byKey[bucket.Key] = bucket
	}

	jan4 := byKey["2024-01-04"]
	assert.Equal(t, "6.2", jan4.Amount.String())
	assert.Equal(t, 4, jan4.Items)
	assert.Equal(t, 2, jan4.Transactions)
}

func TestParsePeriodDefaultsToWeek(t *testing.T) {
	assert.Equal(t, PeriodWeek, ParsePeriod(""))
	assert.Equal(t, PeriodWeek, ParsePeriod("fortnight"))
	assert.Equal(t, PeriodMonth, ParsePeriod(" Month "))
	assert.Equal(t, PeriodYear, ParsePeriod("YEAR"))
}
