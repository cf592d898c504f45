package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/etnz/bankfeed"
	"github.com/google/subcommands"
)

type dropRowCmd struct{}

func (*dropRowCmd) Name() string     { return "drop-row" }
func (*dropRowCmd) Synopsis() string { return "delete a single row of one uploaded file" }
func (*dropRowCmd) Usage() string {
	return `bkf drop-row <file-id> <row>

  Deletes one row of one file, identified by the 0-based row position shown
  in the merged view, and stores the re-encoded file.
`
}

func (*dropRowCmd) SetFlags(_ *flag.FlagSet) {}

func (c *dropRowCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return fail("Error: want <file-id> <row>, got %d arguments", f.NArg())
	}
	id := f.Arg(0)
	row, err := strconv.Atoi(f.Arg(1))
	if err != nil {
		return fail("Error: invalid row %q: %v", f.Arg(1), err)
	}
	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	if err := bankfeed.DeleteRow(store, id, row); err != nil {
		return fail("Error deleting row in %q: %v", id, err)
	}
	fmt.Printf("Deleted %s row %d\n", id, row)
	return subcommands.ExitSuccess
}
