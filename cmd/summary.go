package cmd

import (
	"context"
	"flag"

	"github.com/etnz/bankfeed"
	"github.com/etnz/bankfeed/date"
	"github.com/etnz/bankfeed/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	granularity string
	currency    string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the time-bucketed cashflow series" }
func (*summaryCmd) Usage() string {
	return `bkf summary [-g <granularity>] [<file-id>...]

  Normalizes the selected files (all by default) and displays income,
  expenses, net and ending balance per time bucket.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.granularity, "g", "month", "Bucket granularity: day, week, month or year.")
	f.StringVar(&c.currency, "c", "EUR", "Currency used to format amounts.")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	g, err := date.ParseGranularity(c.granularity)
	if err != nil {
		return fail("Error: %v", err)
	}
	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	tables, err := loadTables(store, f.Args())
	if err != nil {
		return fail("Error loading files: %v", err)
	}

	series := bankfeed.BuildSeries(transactionsOf(tables), g)
	printMarkdown(renderer.CashflowMarkdown(series, renderer.Options{Currency: c.currency}))
	return subcommands.ExitSuccess
}
