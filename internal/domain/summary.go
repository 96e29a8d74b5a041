package domain

import (
	"slices"
	"strconv"
	"time"
)

// MonthKey identifies one cell of the monthly summary.
type MonthKey struct {
	Year  int
	Month int
}

// Summary is a sparse (year, month) → accident count mapping.
type Summary struct {
	counts      map[MonthKey]int
	GeneratedAt time.Time
}

// NewSummary returns an empty summary stamped with the current clock time.
func NewSummary() *Summary {
	return &Summary{
		counts:      make(map[MonthKey]int),
		GeneratedAt: clock.Now().UTC(),
	}
}

// Add counts one accident row.
func (s *Summary) Add(year, month int) {
	s.counts[MonthKey{Year: year, Month: month}]++
}

// Count returns the count for a cell. ok is false when no row fell into it.
func (s *Summary) Count(year, month int) (n int, ok bool) {
	n, ok = s.counts[MonthKey{Year: year, Month: month}]
	return n, ok
}

// Len returns the number of populated cells.
func (s *Summary) Len() int { return len(s.counts) }

// Years returns the distinct years in ascending order.
func (s *Summary) Years() []int {
	return s.distinct(func(k MonthKey) int { return k.Year })
}

// Months returns the distinct months in ascending order.
func (s *Summary) Months() []int {
	return s.distinct(func(k MonthKey) int { return k.Month })
}

func (s *Summary) distinct(pick func(MonthKey) int) []int {
	seen := make(map[int]struct{})
	out := []int{}
	for k := range s.counts {
		v := pick(k)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// SummaryRow is one month of the wide table. Counts align with
// SummaryTable.Years; a nil entry means no accident rows for that year.
type SummaryRow struct {
	Month  int    `json:"MONTH"`
	Counts []*int `json:"counts"`
}

// SummaryTable is the wide year-by-month materialization of a Summary.
type SummaryTable struct {
	Years       []int        `json:"years"`
	Rows        []SummaryRow `json:"rows"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Table materializes the summary: rows are months present in the data
// (ascending) and columns are years (ascending).
func (s *Summary) Table() SummaryTable {
	years := s.Years()
	months := s.Months()
	rows := make([]SummaryRow, 0, len(months))
	for _, m := range months {
		row := SummaryRow{Month: m, Counts: make([]*int, len(years))}
		for i, y := range years {
			if n, ok := s.Count(y, m); ok {
				row.Counts[i] = &n
			}
		}
		rows = append(rows, row)
	}
	return SummaryTable{Years: years, Rows: rows, GeneratedAt: s.GeneratedAt}
}

// Header returns the column labels: MONTH followed by each year.
func (t SummaryTable) Header() []string {
	h := make([]string, 0, len(t.Years)+1)
	h = append(h, ColMonth)
	for _, y := range t.Years {
		h = append(h, strconv.Itoa(y))
	}
	return h
}
