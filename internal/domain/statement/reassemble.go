package statement

import (
	"sort"
	"strings"
)

// Fragment is a run of text placed on a page.
type Fragment struct {
	Page int
	Text string
	X    float64
	Y    float64
	W    float64
}

// Record is one transaction candidate: a start row plus its continuation rows.
type Record struct {
	Line    int
	Raw     string
	Columns []string
}

// ExtractRows turns positioned fragments into text rows. Fragments of one page
// sharing a vertical position form a row, read left to right; a wide gap
// between fragments becomes a column separator.
func (l Layout) ExtractRows(fragments []Fragment) []string {
	var (
		rows    []string
		current strings.Builder
		prev    *Fragment
	)
	flush := func() {
		if row := strings.TrimSpace(current.String()); row != "" {
			rows = append(rows, row)
		}
		current.Reset()
	}

	ordered := orderFragments(fragments)
	for i := range ordered {
		f := &ordered[i]
		if prev != nil && (f.Page != prev.Page || f.Y != prev.Y) {
			flush()
			prev = nil
		}
		if prev != nil {
			gap := f.X - (prev.X + prev.W)
			switch {
			case l.ColumnGap > 0 && gap >= l.ColumnGap:
				current.WriteString(FieldSeparator)
			case l.WordGap > 0 && gap >= l.WordGap && !strings.HasSuffix(current.String(), " ") && !strings.HasPrefix(f.Text, " "):
				current.WriteByte(' ')
			}
		}
		current.WriteString(f.Text)
		prev = f
	}
	flush()
	return rows
}

// orderFragments keeps rows in content-stream order but sorts fragments of the
// same row by X. Rows are consecutive fragments sharing a page and Y.
func orderFragments(fragments []Fragment) []Fragment {
	out := make([]Fragment, len(fragments))
	copy(out, fragments)
	start := 0
	for i := 1; i <= len(out); i++ {
		if i == len(out) || out[i].Page != out[start].Page || out[i].Y != out[start].Y {
			row := out[start:i]
			sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })
			start = i
		}
	}
	return out
}

// Reassemble groups rows into transaction records. A record starts at a
// date-like row and absorbs at most MaxLookahead following rows, stopping at
// the next start row. Records with fewer than MinColumns columns or ending in
// the account-opening marker are dropped.
func (l Layout) Reassemble(rows []string) []Record {
	var records []Record

	for i := 0; i < len(rows); {
		row := strings.TrimSpace(rows[i])
		if !l.IsStart(row) {
			i++
			continue
		}

		parts := []string{row}
		j := i + 1
		for ; j < len(rows) && j <= i+MaxLookahead; j++ {
			next := strings.TrimSpace(rows[j])
			if l.DatePrefix.MatchString(next) {
				break
			}
			if next == "" || l.IsBoilerplate(next) {
				continue
			}
			parts = append(parts, next)
		}

		raw := strings.Join(parts, FieldSeparator)
		cols := splitColumns(raw)
		if len(cols) >= MinColumns && !strings.EqualFold(cols[len(cols)-1], l.AccountOpeningMarker) {
			records = append(records, Record{Line: i + 1, Raw: raw, Columns: cols})
		}
		i = j
	}
	return records
}

func splitColumns(raw string) []string {
	var cols []string
	for _, c := range strings.Split(raw, FieldSeparator) {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
