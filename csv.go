package bankfeed

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultDelimiter is used when delimiter detection finds no signal.
const DefaultDelimiter = ";"

// delimiterCandidates are scored during detection, in tie-break order.
var delimiterCandidates = []string{";", ",", "\t", "|"}

// detectionSample is the number of leading lines scanned to detect the delimiter.
const detectionSample = 20

// RawTable is the decoded form of a delimited text export. It is the only
// at-rest representation: transactions, holdings and the merged view are all
// derived from it and written back through Encode.
type RawTable struct {
	// Headers is the ordered, unique list of column names. Blank header
	// cells are replaced with col_<n>; fields beyond the declared headers
	// are kept under synthesized extra_<n> names.
	Headers []string
	// Rows maps every header to a cell value. Every row carries an entry
	// for every header, empty if the source had none.
	Rows []map[string]string
	// Delimiter is the detected (or caller-chosen) field separator.
	Delimiter string
}

// Decode parses delimited text into a RawTable. It strips a leading BOM,
// ignores blank lines, detects the field delimiter, and splits fields
// honoring double-quoted cells with doubled-quote escapes.
func Decode(text string) RawTable {
	text = strings.TrimPrefix(text, "\ufeff")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	delimiter := detectDelimiter(lines)
	if len(lines) == 0 {
		return RawTable{Delimiter: delimiter}
	}

	headers := splitFields(lines[0], delimiter)
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			headers[i] = fmt.Sprintf("col_%d", i+1)
		} else {
			headers[i] = strings.TrimSpace(h)
		}
	}

	var extras []string // synthesized headers for over-long rows, unioned at the end
	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line, delimiter)
		row := make(map[string]string, len(headers))
		for i, field := range fields {
			var h string
			if i < len(headers) {
				h = headers[i]
			} else {
				h = fmt.Sprintf("extra_%d", i+1)
				if !slices.Contains(extras, h) {
					extras = append(extras, h)
				}
			}
			row[h] = field
		}
		rows = append(rows, row)
	}

	slices.Sort(extras)
	headers = append(headers, extras...)

	// Make rows rectangular: every header resolves in every row.
	for _, row := range rows {
		for _, h := range headers {
			if _, ok := row[h]; !ok {
				row[h] = ""
			}
		}
	}
	return RawTable{Headers: headers, Rows: rows, Delimiter: delimiter}
}

// Encode is the inverse of Decode. A field is quote-wrapped, its inner
// quotes doubled, iff it contains the delimiter, a quote, or a line break.
func Encode(headers []string, rows []map[string]string, delimiter string) string {
	var b strings.Builder
	writeRecord := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteString(delimiter)
			}
			b.WriteString(escapeField(f, delimiter))
		}
		b.WriteString("\n")
	}
	writeRecord(headers)
	fields := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			fields[i] = row[h]
		}
		writeRecord(fields)
	}
	return b.String()
}

// Header resolves a column name against the table headers,
// case-insensitively, returning the header's actual spelling.
func (t RawTable) Header(name string) (string, bool) {
	for _, h := range t.Headers {
		if h == name {
			return h, true
		}
	}
	for _, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// Encode serializes the table back to delimited text.
func (t RawTable) Encode() string {
	d := t.Delimiter
	if d == "" {
		d = DefaultDelimiter
	}
	return Encode(t.Headers, t.Rows, d)
}

func escapeField(f, delimiter string) string {
	if strings.Contains(f, delimiter) || strings.ContainsAny(f, "\"\n\r") {
		return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return f
}

// detectDelimiter scores each candidate by its occurrence count outside
// quoted spans over the leading sample lines. Ties keep the earlier
// candidate, so a silent file falls back to the semicolon default.
func detectDelimiter(lines []string) string {
	if len(lines) > detectionSample {
		lines = lines[:detectionSample]
	}
	best, bestScore := DefaultDelimiter, 0
	for _, candidate := range delimiterCandidates {
		score := 0
		for _, line := range lines {
			score += countOutsideQuotes(line, candidate)
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best
}

func countOutsideQuotes(line, token string) int {
	count := 0
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inQuotes = !inQuotes
		case !inQuotes && strings.HasPrefix(line[i:], token):
			count++
			i += len(token) - 1
		}
	}
	return count
}

// splitFields splits one line on the delimiter, honoring double-quoted
// fields. Inside a quoted field a doubled quote denotes a literal quote.
// Unquoted fields are trimmed of surrounding whitespace.
func splitFields(line, delimiter string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	quoted := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteByte(c)
			}
		case c == '"':
			inQuotes = true
			quoted = true
		case strings.HasPrefix(line[i:], delimiter):
			fields = append(fields, finishField(&cur, quoted))
			quoted = false
			i += len(delimiter) - 1
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, finishField(&cur, quoted))
	return fields
}

func finishField(cur *strings.Builder, quoted bool) string {
	f := cur.String()
	cur.Reset()
	if !quoted {
		return strings.TrimSpace(f)
	}
	return f
}
