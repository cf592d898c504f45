package bankfeed

import (
	"reflect"
	"strings"
	"testing"
)

func sourceTables() []SourceTable {
	a := Decode("date;label;amount\n01/01/2025;SALARY;2000,00\n02/01/2025;PIZZERIA;-32,50\n03/01/2025;MARKET;-12,00\n")
	b := Decode("date;comment;amount\n05/01/2025;wire from Bob;150,00\n")
	return []SourceTable{{ID: "a", Table: a}, {ID: "b", Table: b}}
}

func TestMerge(t *testing.T) {
	m := Merge(sourceTables())

	wantHeaders := []string{ProvenanceHeader, "amount", "comment", "date", "label"}
	if !reflect.DeepEqual(m.Headers, wantHeaders) {
		t.Errorf("Headers = %v, want %v", m.Headers, wantHeaders)
	}
	if len(m.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(m.Rows))
	}
	// Rows are concatenated, tagged with owner and position.
	if m.Rows[0].FileID != "a" || m.Rows[0].Position != 0 {
		t.Errorf("row 0 provenance = %s/%d", m.Rows[0].FileID, m.Rows[0].Position)
	}
	last := m.Rows[3]
	if last.FileID != "b" || last.Position != 0 {
		t.Errorf("row 3 provenance = %s/%d, want b/0", last.FileID, last.Position)
	}
	if last.Cells[ProvenanceHeader] != "b" || last.Cells["label"] != "" || last.Cells["comment"] != "wire from Bob" {
		t.Errorf("row 3 cells = %v", last.Cells)
	}
}

func TestMergeFilter(t *testing.T) {
	m := Merge(sourceTables())

	got := m.Filter("pizz") // case-insensitive substring
	if len(got.Rows) != 1 || got.Rows[0].Cells["label"] != "PIZZERIA" {
		t.Fatalf("Filter(\"pizz\") = %v", got.Rows)
	}
	if got := m.Filter(""); len(got.Rows) != 4 {
		t.Errorf("empty filter kept %d rows, want 4", len(got.Rows))
	}
	// The provenance column is filterable too.
	if got := m.Filter("b"); len(got.Rows) == 0 {
		t.Error("filter on provenance id matched nothing")
	}
}

func TestMergeSortBy(t *testing.T) {
	m := Merge(sourceTables())

	byAmount := m.SortBy("amount", false)
	var amounts []string
	for _, r := range byAmount.Rows {
		amounts = append(amounts, r.Cells["amount"])
	}
	want := []string{"-32,50", "-12,00", "150,00", "2000,00"} // numeric, not lexicographic
	if !reflect.DeepEqual(amounts, want) {
		t.Errorf("sort by amount = %v, want %v", amounts, want)
	}

	byDateDesc := m.SortBy("date", true)
	if byDateDesc.Rows[0].Cells["date"] != "05/01/2025" {
		t.Errorf("sort by date desc: first = %q, want 05/01/2025", byDateDesc.Rows[0].Cells["date"])
	}

	byLabel := m.SortBy("label", false)
	if byLabel.Rows[len(byLabel.Rows)-1].Cells["label"] != "SALARY" {
		t.Errorf("sort by label: last = %q, want SALARY", byLabel.Rows[len(byLabel.Rows)-1].Cells["label"])
	}
}

func TestMergePage(t *testing.T) {
	m := Merge(sourceTables())
	if got := m.Page(0, 3); len(got.Rows) != 3 {
		t.Errorf("page 0 size 3: %d rows, want 3", len(got.Rows))
	}
	if got := m.Page(1, 3); len(got.Rows) != 1 {
		t.Errorf("page 1 size 3: %d rows, want 1", len(got.Rows))
	}
	if got := m.Page(2, 3); len(got.Rows) != 0 {
		t.Errorf("page 2 size 3: %d rows, want 0", len(got.Rows))
	}
	if got := m.Page(0, 0); len(got.Rows) != 4 {
		t.Errorf("unbounded page: %d rows, want 4", len(got.Rows))
	}
}

// TestEditCell checks that editing one row of file A leaves file B untouched
// and file A's row count unchanged, with only the edited cell different.
func TestEditCell(t *testing.T) {
	store := NewMemStore()
	contentA := "date;label;aiCategory\n01/01/2025;SALARY;\n02/01/2025;PIZZERIA;\n03/01/2025;MARKET;\n"
	contentB := "date;label\n05/01/2025;OTHER\n"
	store.Put(File{ID: "a", Content: contentA})
	store.Put(File{ID: "b", Content: contentB})

	if err := EditCell(store, "a", 1, "aiCategory", "Food"); err != nil {
		t.Fatal(err)
	}

	b, _ := store.Get("b")
	if b.Content != contentB {
		t.Errorf("file b changed: %q", b.Content)
	}
	a, _ := store.Get("a")
	got := Decode(a.Content)
	if len(got.Rows) != 3 {
		t.Fatalf("file a row count = %d, want 3", len(got.Rows))
	}
	if got.Rows[1]["aiCategory"] != "Food" {
		t.Errorf("edited cell = %q, want Food", got.Rows[1]["aiCategory"])
	}
	if got.Rows[0]["aiCategory"] != "" || got.Rows[2]["aiCategory"] != "" {
		t.Error("neighbor rows changed")
	}
	if got.Rows[1]["label"] != "PIZZERIA" {
		t.Errorf("other columns of the edited row changed: %v", got.Rows[1])
	}
}

func TestEditCellErrors(t *testing.T) {
	store := NewMemStore()
	store.Put(File{ID: "a", Content: "x;y\n1;2\n"})
	if err := EditCell(store, "missing", 0, "x", "v"); err == nil {
		t.Error("expected an error editing a missing file")
	}
	if err := EditCell(store, "a", 5, "x", "v"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected out of range error, got %v", err)
	}
	if err := EditCell(store, "a", 0, "nope", "v"); err == nil || !strings.Contains(err.Error(), "unknown column") {
		t.Errorf("expected unknown column error, got %v", err)
	}
}

func TestDeleteRow(t *testing.T) {
	store := NewMemStore()
	store.Put(File{ID: "a", Content: "date;label\n1;one\n2;two\n3;three\n"})

	if err := DeleteRow(store, "a", 1); err != nil {
		t.Fatal(err)
	}
	a, _ := store.Get("a")
	got := Decode(a.Content)
	if len(got.Rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(got.Rows))
	}
	if got.Rows[0]["label"] != "one" || got.Rows[1]["label"] != "three" {
		t.Errorf("remaining rows = %v", got.Rows)
	}
}
