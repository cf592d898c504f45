// Package renderer renders pipeline aggregates as markdown, ready to be
// printed through a terminal markdown renderer.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/bankfeed"
	"github.com/shopspring/decimal"
)

// Options tunes how reports are rendered.
type Options struct {
	// Currency used to format amounts. Defaults to EUR.
	Currency string
}

func (o Options) money(d decimal.Decimal) string {
	cur := o.Currency
	if cur == "" {
		cur = "EUR"
	}
	return bankfeed.M(d, cur).String()
}

// CashflowMarkdown renders a cashflow series as a markdown table:
// one row per bucket with income, expenses, net and ending balance.
func CashflowMarkdown(series []bankfeed.CashflowPoint, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cashflow\n\n")
	if len(series) == 0 {
		fmt.Fprintf(&b, "No transactions.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Bucket | Income | Expenses | Net | Balance |\n")
	fmt.Fprintf(&b, "|---|---:|---:|---:|---:|\n")
	for _, p := range series {
		balance := ""
		if p.EndingBalance != nil {
			balance = opts.money(*p.EndingBalance)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			p.Bucket, opts.money(p.Income), opts.money(p.Expenses), opts.money(p.Net), balance)
	}
	return b.String()
}

// CategoriesMarkdown renders per-category totals, biggest spending first.
func CategoriesMarkdown(aggs []bankfeed.CategoryAggregate, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Categories\n\n")
	if len(aggs) == 0 {
		fmt.Fprintf(&b, "No transactions.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Category | Subcategory | Income | Expenses | Net |\n")
	fmt.Fprintf(&b, "|---|---|---:|---:|---:|\n")
	for _, a := range aggs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			a.Category, a.SubCategory, opts.money(a.Income), opts.money(a.Expenses), opts.money(a.Net))
	}
	return b.String()
}

// MergedMarkdown renders one page of the merged view, provenance included.
func MergedMarkdown(m bankfeed.MergedTable) string {
	var b strings.Builder
	writeMerged(&b, m)
	return b.String()
}

func writeMerged(w io.Writer, m bankfeed.MergedTable) {
	if len(m.Rows) == 0 {
		fmt.Fprintf(w, "No rows.\n")
		return
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(m.Headers, " | "))
	fmt.Fprintf(w, "|%s\n", strings.Repeat("---|", len(m.Headers)))
	for _, row := range m.Rows {
		cells := make([]string, len(m.Headers))
		for i, h := range m.Headers {
			cells[i] = escapeCell(row.Cells[h])
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
}

// escapeCell keeps cell content from breaking the table markup.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
