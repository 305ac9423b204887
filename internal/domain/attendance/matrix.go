package attendance

import "sort"

// Cell is one (member, date) entry of the history matrix.
type Cell string

// Cell values. CellNone means no attendance event was recorded that day,
// which is different from absent.
const (
	CellPresent Cell = "✓"
	CellAbsent  Cell = "✗"
	CellNone    Cell = "-"
)

// MemberSnapshot is the member as embedded in a history record. It is
// displayed as-is and never re-joined against the live roster.
type MemberSnapshot struct {
	ID         int
	Name       string
	CenterName string
	Category   string
}

// Record is a day-stamped attendance fact as returned by the backend.
type Record struct {
	Member  MemberSnapshot
	Date    string
	Present bool
}

// Row is one member of the matrix.
type Row struct {
	MemberID   int
	Name       string
	CenterName string
	Category   string
	cells      map[string]Cell
}

// Cell returns the value for the date, CellNone when nothing was recorded.
func (r Row) Cell(date string) Cell {
	if c, ok := r.cells[date]; ok {
		return c
	}
	return CellNone
}

// Matrix is the member x date grid of a history query.
// INVARIANT: Dates is the sorted union of record dates; Rows holds exactly the
// members referenced by at least one record
type Matrix struct {
	Dates []string
	Rows  []Row
}

// Cells returns the row's cells in column order, for templates.
func (m Matrix) Cells(r Row) []Cell {
	out := make([]Cell, len(m.Dates))
	for i, d := range m.Dates {
		out[i] = r.Cell(d)
	}
	return out
}

// IsEmpty reports whether the query matched no records.
func (m Matrix) IsEmpty() bool {
	return len(m.Rows) == 0
}

// Pivot groups flat records into a Matrix.
// PRE: none
// POST: Rows ordered by member id; Dates ascending ISO order; the first record
// seen for a member supplies its display fields; a later record for the same
// (member, date) overrides the earlier cell
func Pivot(records []Record) Matrix {
	rows := make(map[int]*Row)
	dates := make(map[string]bool)

	for _, rec := range records {
		row, ok := rows[rec.Member.ID]
		if !ok {
			row = &Row{
				MemberID:   rec.Member.ID,
				Name:       orDefault(rec.Member.Name, "Unknown"),
				CenterName: orDefault(rec.Member.CenterName, "-"),
				Category:   orDefault(rec.Member.Category, "-"),
				cells:      make(map[string]Cell),
			}
			rows[rec.Member.ID] = row
		}
		if rec.Present {
			row.cells[rec.Date] = CellPresent
		} else {
			row.cells[rec.Date] = CellAbsent
		}
		dates[rec.Date] = true
	}

	m := Matrix{
		Dates: make([]string, 0, len(dates)),
		Rows:  make([]Row, 0, len(rows)),
	}
	for d := range dates {
		m.Dates = append(m.Dates, d)
	}
	sort.Strings(m.Dates)
	for _, r := range rows {
		m.Rows = append(m.Rows, *r)
	}
	sort.Slice(m.Rows, func(i, j int) bool { return m.Rows[i].MemberID < m.Rows[j].MemberID })
	return m
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
