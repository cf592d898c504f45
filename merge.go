package bankfeed

import (
	"fmt"
	"slices"
	"strings"
)

// ProvenanceHeader is the synthesized column recording which source file a
// merged row came from. The underscore keeps it clear of any plausible bank
// column name.
const ProvenanceHeader = "_file"

// SourceTable pairs an upload id with its decoded table.
type SourceTable struct {
	ID    string
	Table RawTable
}

// MergedRow is one row of the merged view, tagged with its provenance:
// the owning file id and the 0-based position within that file's rows.
// The position is what maps an edit or a deletion back to the right row of
// the right file.
type MergedRow struct {
	FileID   string
	Position int
	Cells    map[string]string
}

// MergedTable is the union view over several decoded files. It holds no
// authoritative state: it is rebuilt from the per-file RawTables on every
// change, and edits are routed back to the owning file through the Store.
type MergedTable struct {
	Headers []string
	Rows    []MergedRow
}

// Merge combines the rows of the selected files into one table. The header
// set is the sorted union of all inputs' headers, prefixed with the
// provenance column; rows are concatenated in input order, not interleaved
// by date.
func Merge(files []SourceTable) MergedTable {
	var headers []string
	for _, f := range files {
		for _, h := range f.Table.Headers {
			if !slices.Contains(headers, h) {
				headers = append(headers, h)
			}
		}
	}
	slices.Sort(headers)
	headers = append([]string{ProvenanceHeader}, headers...)

	var rows []MergedRow
	for _, f := range files {
		for i, row := range f.Table.Rows {
			cells := make(map[string]string, len(headers))
			cells[ProvenanceHeader] = f.ID
			for _, h := range headers[1:] {
				cells[h] = row[h]
			}
			rows = append(rows, MergedRow{FileID: f.ID, Position: i, Cells: cells})
		}
	}
	return MergedTable{Headers: headers, Rows: rows}
}

// Filter keeps the rows where any visible column contains the query,
// case-insensitively. An empty query keeps everything.
func (m MergedTable) Filter(query string) MergedTable {
	if query == "" {
		return m
	}
	query = strings.ToLower(query)
	var rows []MergedRow
	for _, row := range m.Rows {
		for _, h := range m.Headers {
			if strings.Contains(strings.ToLower(row.Cells[h]), query) {
				rows = append(rows, row)
				break
			}
		}
	}
	return MergedTable{Headers: m.Headers, Rows: rows}
}

// SortBy stably sorts the rows on one column. The comparison is tri-state:
// numeric when both cells parse as numbers, date when both parse as dates,
// case-folded lexicographic otherwise.
func (m MergedTable) SortBy(column string, descending bool) MergedTable {
	rows := slices.Clone(m.Rows)
	slices.SortStableFunc(rows, func(a, b MergedRow) int {
		c := compareCells(a.Cells[column], b.Cells[column])
		if descending {
			c = -c
		}
		return c
	})
	return MergedTable{Headers: m.Headers, Rows: rows}
}

func compareCells(a, b string) int {
	if na, ok := ParseAmount(a); ok {
		if nb, ok := ParseAmount(b); ok {
			return na.Cmp(nb)
		}
	}
	if da, ok := ParseDay(a); ok {
		if db, ok := ParseDay(b); ok {
			switch {
			case da.Before(db):
				return -1
			case da.After(db):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Page returns the 0-based page of the given size. A size of zero or less
// means unbounded: the whole table is one page.
func (m MergedTable) Page(page, size int) MergedTable {
	if size <= 0 {
		return m
	}
	from := page * size
	if from < 0 || from >= len(m.Rows) {
		return MergedTable{Headers: m.Headers}
	}
	to := min(from+size, len(m.Rows))
	return MergedTable{Headers: m.Headers, Rows: m.Rows[from:to]}
}

// EditCell rewrites a single cell of one source file and hands the
// re-encoded text back to the store. Only the owning file is touched; the
// merged view is expected to be rebuilt afterwards.
func EditCell(store Store, fileID string, position int, column, value string) error {
	return rewrite(store, fileID, func(t *RawTable) error {
		if position < 0 || position >= len(t.Rows) {
			return fmt.Errorf("row %d out of range in file %q (%d rows)", position, fileID, len(t.Rows))
		}
		if !slices.Contains(t.Headers, column) {
			return fmt.Errorf("unknown column %q in file %q", column, fileID)
		}
		t.Rows[position][column] = value
		return nil
	})
}

// DeleteRow removes one row of one source file and hands the re-encoded
// text back to the store.
func DeleteRow(store Store, fileID string, position int) error {
	return rewrite(store, fileID, func(t *RawTable) error {
		if position < 0 || position >= len(t.Rows) {
			return fmt.Errorf("row %d out of range in file %q (%d rows)", position, fileID, len(t.Rows))
		}
		t.Rows = slices.Delete(t.Rows, position, position+1)
		return nil
	})
}

// rewrite performs one read-modify-write cycle on a stored file: decode,
// mutate, re-encode, update. The RawTable is always freshly read so there is
// no stale in-memory state to roll back on failure.
func rewrite(store Store, fileID string, mutate func(*RawTable) error) error {
	f, err := store.Get(fileID)
	if err != nil {
		return err
	}
	t := Decode(f.Content)
	if err := mutate(&t); err != nil {
		return err
	}
	f.Content = t.Encode()
	return store.Update(f)
}
