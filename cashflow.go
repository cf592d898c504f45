package bankfeed

import (
	"slices"
	"strings"

	"github.com/etnz/bankfeed/date"
	"github.com/shopspring/decimal"
)

// CashflowPoint is the aggregate of one time bucket. Points are recomputed
// wholesale on every call, never incrementally mutated.
type CashflowPoint struct {
	Bucket   string    // canonical bucket label, e.g. "2025-03" or "2025-W11"
	Start    date.Date // first day of the bucket
	Income   decimal.Decimal
	Expenses decimal.Decimal // non-negative
	Net      decimal.Decimal
	// EndingBalance is the last non-null running balance observed inside
	// the bucket, in chronological order; nil when no row carried one.
	EndingBalance *decimal.Decimal
}

// CategoryAggregate totals one (category, subCategory) pair.
type CategoryAggregate struct {
	Category    string
	SubCategory string
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Net         decimal.Decimal
}

// BuildSeries buckets transactions by the given granularity and rolls each
// bucket into income, expenses, net and ending balance. Buckets are emitted
// sorted by bucket start, never by encounter order. Pure and deterministic.
func BuildSeries(txs []Transaction, g date.Granularity) []CashflowPoint {
	// Work on a chronologically sorted copy so the last-seen balance of a
	// bucket is well defined whatever order the caller passed.
	txs = sortedByDate(txs)

	points := make(map[string]*CashflowPoint)
	for _, tx := range txs {
		key := g.BucketKey(tx.Date)
		p, ok := points[key]
		if !ok {
			p = &CashflowPoint{Bucket: key, Start: g.BucketStart(tx.Date)}
			points[key] = p
		}
		if tx.Amount.IsNegative() {
			p.Expenses = p.Expenses.Add(tx.Amount.Abs())
		} else {
			p.Income = p.Income.Add(tx.Amount)
		}
		p.Net = p.Net.Add(tx.Amount)
		if tx.Balance != nil {
			b := *tx.Balance
			p.EndingBalance = &b
		}
	}

	series := make([]CashflowPoint, 0, len(points))
	for _, p := range points {
		series = append(series, *p)
	}
	slices.SortFunc(series, func(a, b CashflowPoint) int {
		switch {
		case a.Start.Before(b.Start):
			return -1
		case a.Start.After(b.Start):
			return 1
		default:
			return strings.Compare(a.Bucket, b.Bucket)
		}
	})
	return series
}

// AggregateByCategory totals income and expenses per observed
// (category, subCategory) pair, sorted by descending expenses so the biggest
// spending categories come first.
func AggregateByCategory(txs []Transaction) []CategoryAggregate {
	type key struct{ cat, sub string }
	totals := make(map[key]*CategoryAggregate)
	for _, tx := range txs {
		k := key{tx.Category, tx.SubCategory}
		agg, ok := totals[k]
		if !ok {
			agg = &CategoryAggregate{Category: k.cat, SubCategory: k.sub}
			totals[k] = agg
		}
		if tx.Amount.IsNegative() {
			agg.Expenses = agg.Expenses.Add(tx.Amount.Abs())
		} else {
			agg.Income = agg.Income.Add(tx.Amount)
		}
		agg.Net = agg.Net.Add(tx.Amount)
	}

	aggs := make([]CategoryAggregate, 0, len(totals))
	for _, agg := range totals {
		aggs = append(aggs, *agg)
	}
	slices.SortFunc(aggs, func(a, b CategoryAggregate) int {
		if c := b.Expenses.Cmp(a.Expenses); c != 0 {
			return c
		}
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(a.SubCategory, b.SubCategory)
	})
	return aggs
}

// LatestBalance returns the most recent non-null running balance, scanning
// the date-sorted transactions from the end.
func LatestBalance(txs []Transaction) (decimal.Decimal, bool) {
	txs = sortedByDate(txs)
	for i := len(txs) - 1; i >= 0; i-- {
		if txs[i].Balance != nil {
			return *txs[i].Balance, true
		}
	}
	return decimal.Decimal{}, false
}

func sortedByDate(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	})
	return sorted
}
