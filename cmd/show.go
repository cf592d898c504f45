package cmd

import (
	"context"
	"flag"

	"github.com/etnz/bankfeed"
	"github.com/etnz/bankfeed/renderer"
	"github.com/google/subcommands"
)

type showCmd struct {
	filter string
	sort   string
	desc   bool
	page   int
	size   int
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the merged view of the uploaded files" }
func (*showCmd) Usage() string {
	return `bkf show [-filter <text>] [-sort <column>] [-desc] [-page <n> -size <n>] [<file-id>...]

  Merges the selected files (all by default) into one table tagged with the
  source file of every row, then filters, sorts and paginates it.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.filter, "filter", "", "Keep only rows containing this text in any column.")
	f.StringVar(&c.sort, "sort", "", "Column to sort on (numeric, date or text, auto-detected).")
	f.BoolVar(&c.desc, "desc", false, "Sort descending.")
	f.IntVar(&c.page, "page", 0, "0-based page to display.")
	f.IntVar(&c.size, "size", 0, "Page size; 0 displays everything.")
}

func (c *showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	tables, err := loadTables(store, f.Args())
	if err != nil {
		return fail("Error loading files: %v", err)
	}

	view := bankfeed.Merge(tables).Filter(c.filter)
	if c.sort != "" {
		view = view.SortBy(c.sort, c.desc)
	}
	view = view.Page(c.page, c.size)
	printMarkdown(renderer.MergedMarkdown(view))
	return subcommands.ExitSuccess
}
