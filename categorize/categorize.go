package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/etnz/bankfeed"
)

// Mode selects which rows of a file are submitted for categorization. It
// changes only the row selection, never the orchestration itself.
type Mode string

const (
	// ModeMissing submits only rows whose category or subcategory is still
	// blank; already-categorized rows keep their values untouched.
	ModeMissing Mode = "missing"
	// ModeOverwrite resubmits and replaces every row.
	ModeOverwrite Mode = "overwrite"
)

// ParseMode parses a categorization mode from its caller-facing name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeMissing:
		return ModeMissing, nil
	case ModeOverwrite:
		return ModeOverwrite, nil
	default:
		return "", fmt.Errorf("unknown categorization mode %q (want %q or %q)", s, ModeMissing, ModeOverwrite)
	}
}

// DefaultBatchSize bounds the prompt size of one submission.
const DefaultBatchSize = 50

// Row is the compact, transaction-shaped record submitted to the service.
type Row struct {
	Label    string `json:"label,omitempty"`
	Supplier string `json:"supplier,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Result is the categorization of one input row, identified by its position
// in the submitted batch.
type Result struct {
	Index       int    `json:"index"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// Categorizer orchestrates categorization runs against a Generator. The
// zero values of the tuning fields select the defaults; Sleep and Jitter
// exist so tests can simulate elapsed time without real delays.
type Categorizer struct {
	Gen         Generator
	MaxAttempts int                 // retry ceiling per submission, DefaultMaxAttempts when 0
	BaseDelay   time.Duration       // backoff base, DefaultBaseDelay when 0
	BatchSize   int                 // rows per submission, DefaultBatchSize when 0
	Sleep       func(time.Duration) // injected clock for tests, time.Sleep when nil
	Jitter      func() float64      // injected randomness for tests
}

// New creates a Categorizer with default tuning.
func New(gen Generator) *Categorizer {
	return &Categorizer{Gen: gen}
}

// Batch asks the service to categorize one batch of rows under the given
// taxonomy. It returns exactly one Result per input row, in input order.
// Rows the service did not answer for keep an empty category/subcategory
// pair instead of failing the batch; an out-of-range or duplicate index in
// the response is ignorable, the later duplicate winning.
func (c *Categorizer) Batch(ctx context.Context, rows []Row, taxonomy Taxonomy) ([]Result, error) {
	if err := taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(rows, taxonomy)
	if err != nil {
		return nil, err
	}
	out, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("categorization request failed: %w", err)
	}

	decoded, err := decodeResults(out)
	if err != nil {
		// One repair round-trip: ask the same service to reformat its own
		// previous output into strict JSON.
		repaired, rerr := c.generate(ctx, repairPrompt(out))
		if rerr != nil {
			return nil, fmt.Errorf("repair request failed: %w", rerr)
		}
		decoded, err = decodeResults(repaired)
		if err != nil {
			return nil, fmt.Errorf("categorization response unusable after repair: %w", err)
		}
	}

	results := make([]Result, len(rows))
	for i := range results {
		results[i].Index = i
	}
	for _, r := range decoded {
		if r.Index < 0 || r.Index >= len(rows) {
			log.Printf("ignoring categorization for out-of-range index %d (batch of %d)", r.Index, len(rows))
			continue
		}
		results[r.Index] = r
	}
	return results, nil
}

// buildPrompt constructs the single natural-language instruction embedding
// the taxonomy as the closed output vocabulary and the batch rows as
// indexed compact records.
func buildPrompt(rows []Row, taxonomy Taxonomy) (string, error) {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Assign each transaction below a category and a subCategory.\n")
	b.WriteString("Use exclusively this taxonomy, one category per line followed by its allowed subcategories:\n\n")
	b.WriteString(taxonomy.promptLines())
	b.WriteString("\nRespond with a strict JSON array, one object per transaction:\n")
	b.WriteString(`[{"index": <transaction index>, "category": "<taxonomy category>", "subCategory": "<taxonomy subcategory>"}]` + "\n")
	b.WriteString("Do not invent categories, do not add prose.\n\nTransactions:\n")
	for i, row := range rows {
		record := struct {
			Index int `json:"index"`
			Row
		}{Index: i, Row: row}
		data, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("cannot serialize row %d: %w", i, err)
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func repairPrompt(previous string) string {
	return "The following text should be a JSON array of objects with fields " +
		`"index", "category" and "subCategory" but is not valid JSON. ` +
		"Reformat it into strict JSON. Output only the JSON, nothing else.\n\n" + previous
}

// CategorizeTable runs a whole file through categorization: it makes sure
// the AI category columns exist, selects rows per the mode, submits them in
// fixed-size sequential batches, and writes the results back into the table
// rows. Batches are sequential because a later batch must not race the
// in-progress rewrite of the same file.
//
// A batch failure aborts the remaining batches of this file only; results
// already written stand, so partial progress is preserved. The number of
// rows updated so far is returned alongside the error.
func (c *Categorizer) CategorizeTable(ctx context.Context, t *bankfeed.RawTable, taxonomy Taxonomy, mode Mode) (updated int, err error) {
	if err := taxonomy.Validate(); err != nil {
		return 0, fmt.Errorf("invalid taxonomy: %w", err)
	}
	catCol := ensureHeader(t, bankfeed.ColCategory)
	subCol := ensureHeader(t, bankfeed.ColSubCategory)

	var selected []int
	for i, row := range t.Rows {
		if mode == ModeMissing && row[catCol] != "" && row[subCol] != "" {
			continue
		}
		selected = append(selected, i)
	}

	size := c.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	for from := 0; from < len(selected); from += size {
		to := min(from+size, len(selected))
		batch := selected[from:to]
		rows := make([]Row, len(batch))
		for i, rowIdx := range batch {
			rows[i] = rowOf(t, t.Rows[rowIdx])
		}
		results, err := c.Batch(ctx, rows, taxonomy)
		if err != nil {
			return updated, fmt.Errorf("batch %d-%d: %w", from, to-1, err)
		}
		for i, res := range results {
			row := t.Rows[batch[i]]
			if row[catCol] != res.Category || row[subCol] != res.SubCategory {
				updated++
			}
			row[catCol] = res.Category
			row[subCol] = res.SubCategory
		}
	}
	return updated, nil
}

// rowOf projects a raw row onto the compact record submitted to the service.
func rowOf(t *bankfeed.RawTable, row map[string]string) Row {
	get := func(name string) string {
		if h, ok := t.Header(name); ok {
			return row[h]
		}
		return ""
	}
	day := get(bankfeed.ColDateVal)
	if day == "" {
		day = get(bankfeed.ColDateOp)
	}
	if day == "" {
		day = get(bankfeed.ColDate)
	}
	return Row{
		Label:    get(bankfeed.ColLabel),
		Supplier: get(bankfeed.ColSupplier),
		Comment:  get(bankfeed.ColComment),
		Amount:   get(bankfeed.ColAmount),
		Date:     day,
	}
}

// ensureHeader adds the column to the table if absent, filling every row
// with an empty value, and returns the column's actual spelling.
func ensureHeader(t *bankfeed.RawTable, name string) string {
	if h, ok := t.Header(name); ok {
		return h
	}
	t.Headers = append(t.Headers, name)
	for _, row := range t.Rows {
		row[name] = ""
	}
	return name
}
