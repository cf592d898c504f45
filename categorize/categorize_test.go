package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/etnz/bankfeed"
)

// stubGen replays a scripted sequence of completions and errors, recording
// every prompt it receives.
type stubGen struct {
	script  []func() (string, error)
	prompts []string
}

func (s *stubGen) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.script) == 0 {
		return "", fmt.Errorf("stub exhausted after %d calls", len(s.prompts))
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next()
}

func reply(out string) func() (string, error) {
	return func() (string, error) { return out, nil }
}

func failWith(err error) func() (string, error) {
	return func() (string, error) { return "", err }
}

// answerAll builds a well-formed response categorizing n rows from the
// fixture taxonomy, round-robin.
func answerAll(n int) string {
	tax := fixtureTaxonomy()
	var results []Result
	for i := 0; i < n; i++ {
		c := tax[i%len(tax)]
		results = append(results, Result{Index: i, Category: c.Name, SubCategory: c.Subcategories[0]})
	}
	data, _ := json.Marshal(results)
	return string(data)
}

func rows(n int) []Row {
	out := make([]Row, n)
	for i := range out {
		out[i] = Row{Label: fmt.Sprintf("row %d", i), Amount: "-1,00", Date: "01/01/2025"}
	}
	return out
}

// TestBatchIndexIntegrity submits a 10-row batch and checks it yields
// exactly 10 results, each drawn from the taxonomy.
func TestBatchIndexIntegrity(t *testing.T) {
	gen := &stubGen{script: []func() (string, error){reply(answerAll(10))}}
	c := New(gen)

	results, err := c.Batch(context.Background(), rows(10), fixtureTaxonomy())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	categories := fixtureTaxonomy().Categories()
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
		if !categories[r.Category] {
			t.Errorf("results[%d].Category = %q not in taxonomy", i, r.Category)
		}
	}
}

func TestBatchInvalidTaxonomy(t *testing.T) {
	gen := &stubGen{}
	c := New(gen)
	if _, err := c.Batch(context.Background(), rows(1), Taxonomy{}); err == nil {
		t.Fatal("expected an error on empty taxonomy")
	}
	if len(gen.prompts) != 0 {
		t.Errorf("taxonomy validation must happen before any network call, got %d calls", len(gen.prompts))
	}
}

func TestBatchPromptShape(t *testing.T) {
	gen := &stubGen{script: []func() (string, error){reply(answerAll(2))}}
	c := New(gen)
	in := []Row{
		{Label: "CARREFOUR", Amount: "-45,10", Date: "02/01/2025"},
		{Label: "SALARY", Supplier: "ACME", Amount: "2000,00", Date: "03/01/2025"},
	}
	if _, err := c.Batch(context.Background(), in, fixtureTaxonomy()); err != nil {
		t.Fatal(err)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{
		"Food: Groceries, Restaurants", // serialized taxonomy
		`{"index":0,"label":"CARREFOUR","amount":"-45,10","date":"02/01/2025"}`,
		`{"index":1,"label":"SALARY","supplier":"ACME","amount":"2000,00","date":"03/01/2025"}`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt misses %q:\n%s", want, prompt)
		}
	}
}

// TestBatchSparseResponse checks the open-ended edges of response indexing:
// unanswered rows yield an empty pair, out-of-range indices are ignored and
// the later of two duplicates wins.
func TestBatchSparseResponse(t *testing.T) {
	response := `[
		{"index": 1, "category": "Food", "subCategory": "Groceries"},
		{"index": 99, "category": "Housing", "subCategory": "Rent"},
		{"index": -1, "category": "Housing", "subCategory": "Rent"},
		{"index": 1, "category": "Food", "subCategory": "Restaurants"}
	]`
	gen := &stubGen{script: []func() (string, error){reply(response)}}
	c := New(gen)

	results, err := c.Batch(context.Background(), rows(3), fixtureTaxonomy())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Category != "" || results[0].SubCategory != "" {
		t.Errorf("unanswered row 0 = %+v, want empty pair", results[0])
	}
	if results[1].SubCategory != "Restaurants" {
		t.Errorf("duplicate index: subCategory = %q, want the later Restaurants", results[1].SubCategory)
	}
	if results[2].Category != "" {
		t.Errorf("unanswered row 2 = %+v, want empty pair", results[2])
	}
}

// TestBatchRepair feeds an unparseable response and checks the orchestrator
// asks the service to reformat its own output.
func TestBatchRepair(t *testing.T) {
	garbage := "I think the answer is probably Food related?"
	gen := &stubGen{script: []func() (string, error){
		reply(garbage),
		reply(answerAll(2)),
	}}
	c := New(gen)

	results, err := c.Batch(context.Background(), rows(2), fixtureTaxonomy())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Category != "Food" {
		t.Errorf("results after repair = %v", results)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("got %d calls, want 2", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], garbage) {
		t.Errorf("repair prompt does not carry the previous output:\n%s", gen.prompts[1])
	}
}

func TestBatchRepairFailureIsFatal(t *testing.T) {
	gen := &stubGen{script: []func() (string, error){
		reply("still not json"),
		reply("nope, sorry"),
	}}
	c := New(gen)
	if _, err := c.Batch(context.Background(), rows(2), fixtureTaxonomy()); err == nil {
		t.Fatal("expected an error when the repair round-trip fails too")
	}
	if len(gen.prompts) != 2 {
		t.Errorf("got %d calls, want exactly 2 (one repair, no more)", len(gen.prompts))
	}
}

func TestCategorizeTableMissingMode(t *testing.T) {
	table := bankfeed.Decode("label;amount;date;aiCategory;aiSubCategory\n" +
		"CARREFOUR;-45,10;02/01/2025;;\n" +
		"DONE;-1,00;03/01/2025;Food;Groceries\n" +
		"PIZZERIA;-32,50;04/01/2025;;\n")

	gen := &stubGen{script: []func() (string, error){reply(answerAll(2))}}
	c := New(gen)
	updated, err := c.CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	if strings.Contains(gen.prompts[0], "DONE") {
		t.Error("missing mode submitted an already-categorized row")
	}
	if got := table.Rows[1]["aiCategory"]; got != "Food" {
		t.Errorf("pre-categorized row changed: %q", got)
	}
	if got := table.Rows[0]["aiCategory"]; got != "Food" {
		t.Errorf("row 0 category = %q, want Food", got)
	}
	if got := table.Rows[2]["aiCategory"]; got != "Housing" {
		t.Errorf("row 2 category = %q, want Housing", got)
	}
}

// TestCategorizeTableMissingModeIdempotent checks that once every row is
// categorized, a second missing-mode run makes no service call and leaves
// the encoded content byte-identical.
func TestCategorizeTableMissingModeIdempotent(t *testing.T) {
	table := bankfeed.Decode("label;amount;date\nCARREFOUR;-45,10;02/01/2025\nPIZZERIA;-32,50;03/01/2025\n")

	first := &stubGen{script: []func() (string, error){reply(answerAll(2))}}
	if _, err := New(first).CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing); err != nil {
		t.Fatal(err)
	}
	content := table.Encode()

	second := &stubGen{} // any call would fail: the script is empty
	updated, err := New(second).CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 0 {
		t.Errorf("second run updated = %d, want 0", updated)
	}
	if len(second.prompts) != 0 {
		t.Errorf("second run made %d service calls, want 0", len(second.prompts))
	}
	if got := table.Encode(); got != content {
		t.Errorf("content changed on second run:\n%q\n%q", content, got)
	}
}

func TestCategorizeTableOverwriteMode(t *testing.T) {
	table := bankfeed.Decode("label;amount;date;aiCategory;aiSubCategory\nDONE;-1,00;03/01/2025;Stale;Stale\n")
	gen := &stubGen{script: []func() (string, error){reply(answerAll(1))}}
	updated, err := New(gen).CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeOverwrite)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := table.Rows[0]["aiCategory"]; got != "Food" {
		t.Errorf("overwrite left %q", got)
	}
}

// TestCategorizeTableAddsColumns checks that the AI columns are created,
// and filled, on a file that never had them.
func TestCategorizeTableAddsColumns(t *testing.T) {
	table := bankfeed.Decode("label;amount;date\nCARREFOUR;-45,10;02/01/2025\n")
	gen := &stubGen{script: []func() (string, error){reply(answerAll(1))}}
	if _, err := New(gen).CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing); err != nil {
		t.Fatal(err)
	}
	decoded := bankfeed.Decode(table.Encode())
	if got := decoded.Rows[0]["aiCategory"]; got != "Food" {
		t.Errorf("aiCategory after round-trip = %q, want Food", got)
	}
	if got := decoded.Rows[0]["aiSubCategory"]; got != "Groceries" {
		t.Errorf("aiSubCategory after round-trip = %q, want Groceries", got)
	}
}

// TestCategorizeTableBatchFailure checks that a failing batch aborts the
// remaining batches but preserves the results already written.
func TestCategorizeTableBatchFailure(t *testing.T) {
	table := bankfeed.Decode("label;amount;date\nA;-1,00;01/01/2025\nB;-2,00;02/01/2025\n")
	gen := &stubGen{script: []func() (string, error){
		reply(`[{"index":0,"category":"Food","subCategory":"Groceries"}]`),
		failWith(errors.New("boom")),
	}}
	c := New(gen)
	c.BatchSize = 1
	c.MaxAttempts = 1

	updated, err := c.CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing)
	if err == nil {
		t.Fatal("expected the second batch to fail")
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := table.Rows[0]["aiCategory"]; got != "Food" {
		t.Errorf("first batch result lost: %q", got)
	}
	if got := table.Rows[1]["aiCategory"]; got != "" {
		t.Errorf("second batch row unexpectedly written: %q", got)
	}
}

// TestCategorizeTableSequential checks batches are submitted one after the
// other, bounded by the batch size.
func TestCategorizeTableSequential(t *testing.T) {
	table := bankfeed.Decode("label;amount;date\nA;-1,00;01/01/2025\nB;-2,00;02/01/2025\nC;-3,00;03/01/2025\n")
	gen := &stubGen{script: []func() (string, error){
		reply(answerAll(2)),
		reply(answerAll(1)),
	}}
	c := New(gen)
	c.BatchSize = 2

	if _, err := c.CategorizeTable(context.Background(), &table, fixtureTaxonomy(), ModeMissing); err != nil {
		t.Fatal(err)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("got %d batches, want 2", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], `"label":"A"`) || strings.Contains(gen.prompts[0], `"label":"C"`) {
		t.Errorf("first batch rows wrong:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[1], `"label":"C"`) {
		t.Errorf("second batch rows wrong:\n%s", gen.prompts[1])
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Missing"); err != nil || m != ModeMissing {
		t.Errorf("ParseMode(Missing) = %v, %v", m, err)
	}
	if m, err := ParseMode("overwrite"); err != nil || m != ModeOverwrite {
		t.Errorf("ParseMode(overwrite) = %v, %v", m, err)
	}
	if _, err := ParseMode("everything"); err == nil {
		t.Error("ParseMode(everything) expected an error")
	}
}
