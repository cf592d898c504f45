package cmd

import (
	"context"
	"flag"

	"github.com/etnz/bankfeed"
	"github.com/etnz/bankfeed/renderer"
	"github.com/google/subcommands"
)

type categoriesCmd struct {
	currency string
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "display per-category income and expense totals" }
func (*categoriesCmd) Usage() string {
	return `bkf categories [<file-id>...]

  Displays income, expenses and net per (category, subcategory) pair,
  biggest spending categories first.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "EUR", "Currency used to format amounts.")
}

func (c *categoriesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	tables, err := loadTables(store, f.Args())
	if err != nil {
		return fail("Error loading files: %v", err)
	}

	aggs := bankfeed.AggregateByCategory(transactionsOf(tables))
	printMarkdown(renderer.CategoriesMarkdown(aggs, renderer.Options{Currency: c.currency}))
	return subcommands.ExitSuccess
}
