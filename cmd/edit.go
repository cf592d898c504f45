package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/etnz/bankfeed"
	"github.com/google/subcommands"
)

type editCmd struct{}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "rewrite a single cell of one uploaded file" }
func (*editCmd) Usage() string {
	return `bkf edit <file-id> <row> <column> <value>

  Rewrites one cell of one file, identified by the 0-based row position
  shown in the merged view, and stores the re-encoded file. Other files are
  never touched.
`
}

func (*editCmd) SetFlags(_ *flag.FlagSet) {}

func (c *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 4 {
		return fail("Error: want <file-id> <row> <column> <value>, got %d arguments", f.NArg())
	}
	id, column, value := f.Arg(0), f.Arg(2), f.Arg(3)
	row, err := strconv.Atoi(f.Arg(1))
	if err != nil {
		return fail("Error: invalid row %q: %v", f.Arg(1), err)
	}
	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	if err := bankfeed.EditCell(store, id, row, column, value); err != nil {
		return fail("Error editing %q: %v", id, err)
	}
	fmt.Printf("Updated %s row %d column %s\n", id, row, column)
	return subcommands.ExitSuccess
}
