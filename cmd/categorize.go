package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/bankfeed"
	"github.com/etnz/bankfeed/categorize"
	"github.com/google/subcommands"
)

type categorizeCmd struct {
	taxonomyFile string
	mode         string
	batchSize    int
	model        string
}

func (*categorizeCmd) Name() string     { return "categorize" }
func (*categorizeCmd) Synopsis() string { return "assign AI categories to the selected files" }
func (*categorizeCmd) Usage() string {
	return `bkf categorize -taxonomy <file> [-mode missing|overwrite] [<file-id>...]

  Submits the transactions of the selected files (all by default) to the
  generative service and writes the assigned category and subcategory back
  into the aiCategory/aiSubCategory columns of each file.

  The taxonomy file is a JSON array of {"name": ..., "subcategories": [...]}.
  Files are processed one after the other: a failure aborts the current file
  but preserves the files already rewritten.
`
}

func (c *categorizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.taxonomyFile, "taxonomy", "taxonomy.json", "Path to the category taxonomy file.")
	f.StringVar(&c.mode, "mode", "missing", "Row selection: 'missing' fills blanks only, 'overwrite' redoes everything.")
	f.IntVar(&c.batchSize, "batch", categorize.DefaultBatchSize, "Transactions submitted per service call.")
	f.StringVar(&c.model, "model", categorize.DefaultModel, "Generative model to use.")
}

func (c *categorizeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	mode, err := categorize.ParseMode(c.mode)
	if err != nil {
		return fail("Error: %v", err)
	}
	taxonomy, err := loadTaxonomy(c.taxonomyFile)
	if err != nil {
		return fail("Error loading taxonomy: %v", err)
	}
	if err := taxonomy.Validate(); err != nil {
		return fail("Error: %v", err)
	}

	store, err := openStore()
	if err != nil {
		return fail("Error opening store: %v", err)
	}
	ids := f.Args()
	if len(ids) == 0 {
		if ids, err = store.List(); err != nil {
			return fail("Error listing files: %v", err)
		}
	}

	gen, err := categorize.NewGemini(ctx)
	if err != nil {
		return fail("Error: %v", err)
	}
	gen.Model = c.model
	cat := categorize.New(gen)
	cat.BatchSize = c.batchSize

	// One read-modify-write cycle per file; a failing file stops the run
	// but the files already written stay written.
	for _, id := range ids {
		file, err := store.Get(id)
		if err != nil {
			return fail("Error reading %q: %v", id, err)
		}
		table := bankfeed.Decode(file.Content)
		updated, err := cat.CategorizeTable(ctx, &table, taxonomy, mode)
		if updated > 0 {
			file.Content = table.Encode()
			if werr := store.Update(file); werr != nil {
				return fail("Error writing %q back: %v", id, werr)
			}
		}
		if err != nil {
			return fail("Error categorizing %q (%d rows updated): %v", id, updated, err)
		}
		fmt.Printf("Categorized %q: %d rows updated\n", id, updated)
	}
	return subcommands.ExitSuccess
}

func loadTaxonomy(path string) (categorize.Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var taxonomy categorize.Taxonomy
	if err := json.Unmarshal(data, &taxonomy); err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", path, err)
	}
	return taxonomy, nil
}
