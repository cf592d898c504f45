package bankfeed

import (
	"strings"

	"github.com/etnz/bankfeed/date"
	"github.com/shopspring/decimal"
)

// Uncategorized is the category marker for transactions the AI columns have
// not labeled yet.
const Uncategorized = "Uncategorized"

// Well-known transaction column names. Categories are read exclusively from
// the AI-written columns, never from a source bank's own category column, so
// the taxonomy stays consistent across heterogeneous exports.
const (
	ColDateOp      = "dateOp"
	ColDateVal     = "dateVal"
	ColDate        = "date"
	ColAmount      = "amount"
	ColCategory    = "aiCategory"
	ColSubCategory = "aiSubCategory"
	ColBalance     = "accountbalance"
	ColLabel       = "label"
	ColSupplier    = "supplierFound"
	ColComment     = "comment"
)

// Transaction is one ledger movement. Transactions are immutable value
// objects rebuilt on every normalization pass; edits always go through the
// owning RawTable.
type Transaction struct {
	Date        date.Date
	Amount      decimal.Decimal // positive = inflow, negative = outflow
	Category    string
	SubCategory string
	Balance     *decimal.Decimal // running balance as of this row, if the source carries one
	Label       string
	Supplier    string
	Comment     string
}

// cell returns the value of the first matching column, resolved
// case-insensitively so "AccountBalance" and "accountbalance" both work.
func cell(row map[string]string, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok {
			return v
		}
	}
	for _, name := range names {
		for k, v := range row {
			if strings.EqualFold(k, name) {
				return v
			}
		}
	}
	return ""
}

// orUncategorized substitutes the Uncategorized marker for blank labels.
func orUncategorized(s string) string {
	if strings.TrimSpace(s) == "" {
		return Uncategorized
	}
	return s
}

// Transactions normalizes the table rows into Transactions, sorted by
// ascending date. Rows missing both a resolvable date and a resolvable
// amount are silently dropped: normalization is lossy by design and must
// survive arbitrarily messy exports.
func (t RawTable) Transactions() []Transaction {
	txs := make([]Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		day, dayOK := parseFirstDay(row, ColDateVal, ColDateOp, ColDate)
		amount, amountOK := ParseAmount(cell(row, ColAmount))
		if !dayOK && !amountOK {
			continue
		}
		tx := Transaction{
			Date:        day,
			Amount:      amount,
			Category:    orUncategorized(cell(row, ColCategory)),
			SubCategory: orUncategorized(cell(row, ColSubCategory)),
			Label:       cell(row, ColLabel),
			Supplier:    cell(row, ColSupplier),
			Comment:     cell(row, ColComment),
		}
		if balance, ok := ParseAmount(cell(row, ColBalance)); ok {
			tx.Balance = &balance
		}
		txs = append(txs, tx)
	}
	// Stable: rows sharing a date keep their file order, which is what the
	// running-balance bookkeeping relies on.
	return sortedByDate(txs)
}

// parseFirstDay resolves the first parseable date among the given columns,
// in priority order.
func parseFirstDay(row map[string]string, names ...string) (date.Date, bool) {
	for _, name := range names {
		if d, ok := ParseDay(cell(row, name)); ok {
			return d, true
		}
	}
	return date.Date{}, false
}
