// Package cmd implements the CLI application to inspect and categorize
// uploaded bank exports.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/bankfeed"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&summaryCmd{}, "reports")
	c.Register(&categoriesCmd{}, "reports")

	c.Register(&categorizeCmd{}, "categorization")

	c.Register(&showCmd{}, "files")
	c.Register(&editCmd{}, "files")
	c.Register(&dropRowCmd{}, "files")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storePath = flag.String("store", "uploads", "Path to the folder holding the uploaded export files")

// openStore opens the app upload folder as a Store.
func openStore() (bankfeed.Store, error) {
	return bankfeed.NewDirStore(*storePath)
}

// loadTables decodes the selected files (all of them when ids is empty)
// into provenance-tagged source tables.
func loadTables(store bankfeed.Store, ids []string) ([]bankfeed.SourceTable, error) {
	if len(ids) == 0 {
		var err error
		ids, err = store.List()
		if err != nil {
			return nil, err
		}
	}
	tables := make([]bankfeed.SourceTable, 0, len(ids))
	for _, id := range ids {
		f, err := store.Get(id)
		if err != nil {
			return nil, err
		}
		tables = append(tables, bankfeed.SourceTable{ID: id, Table: bankfeed.Decode(f.Content)})
	}
	return tables, nil
}

// transactionsOf normalizes and concatenates the transactions of the tables.
func transactionsOf(tables []bankfeed.SourceTable) []bankfeed.Transaction {
	var txs []bankfeed.Transaction
	for _, t := range tables {
		txs = append(txs, t.Table.Transactions()...)
	}
	return txs
}

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when the renderer is unavailable (e.g. no TTY).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
