// Package pipeline implements the census read → project → aggregate flow and
// the per-state map flow on top of the dataset and domain packages.
package pipeline

import (
	"log/slog"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/observability"
)

// YearReader loads the full accident table for one year.
type YearReader interface {
	ReadYear(year int) (dataframe.DataFrame, error)
}

// YearTable is one year's MONTH/year projection. A failed year keeps its
// error and an empty frame, and contributes no rows to a summary.
type YearTable struct {
	Year  int
	Frame dataframe.DataFrame
	Err   error
}

// OK reports whether the year loaded.
func (t YearTable) OK() bool { return t.Err == nil }

// Diagnostic records a year dropped from a summary.
type Diagnostic struct {
	Year   int    `json:"year"`
	Reason string `json:"reason"`
}

// Report is the result of a summary run.
type Report struct {
	Summary     *domain.Summary
	Diagnostics []Diagnostic
}

// Summarizer builds monthly accident summaries across years.
type Summarizer struct {
	reader  YearReader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSummarizer creates a Summarizer reading yearly files through reader.
func NewSummarizer(reader YearReader, logger *slog.Logger, metrics *observability.Metrics) *Summarizer {
	return &Summarizer{
		reader:  reader,
		logger:  logger,
		metrics: metrics,
	}
}

// ReadYears loads each year independently, in input order. A year whose file
// is missing or unreadable yields a placeholder and a warning instead of
// aborting the rest.
func (s *Summarizer) ReadYears(years []int) ([]YearTable, []Diagnostic) {
	tables := make([]YearTable, 0, len(years))
	var diags []Diagnostic

	for _, year := range years {
		frame, err := s.readYear(year)
		if err != nil {
			s.logger.Warn("invalid year", "year", year, "error", err)
			s.metrics.YearsFailed.Inc()
			tables = append(tables, YearTable{Year: year, Err: err})
			diags = append(diags, Diagnostic{Year: year, Reason: err.Error()})
			continue
		}
		s.metrics.YearsLoaded.Inc()
		s.metrics.RecordsRead.Add(float64(frame.Nrow()))
		tables = append(tables, YearTable{Year: year, Frame: frame})
	}

	return tables, diags
}

func (s *Summarizer) readYear(year int) (dataframe.DataFrame, error) {
	df, err := s.reader.ReadYear(year)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	projected, skipped, err := dataset.ProjectMonths(df, year)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if skipped > 0 {
		s.logger.Warn("rows without MONTH skipped", "year", year, "rows", skipped)
		s.metrics.RowsSkipped.Add(float64(skipped))
	}
	return projected, nil
}

// SummarizeYears counts accidents per (year, month) across the loaded years.
// Failed years are reported in the diagnostics and otherwise ignored, so an
// empty or entirely invalid input yields an empty summary.
func (s *Summarizer) SummarizeYears(years []int) (Report, error) {
	tables, diags := s.ReadYears(years)

	summary := domain.NewSummary()
	combined, ok := bindRows(tables)
	if ok {
		if err := countMonths(summary, combined); err != nil {
			return Report{}, err
		}
	}

	s.metrics.Summaries.Inc()
	s.metrics.SummaryYears.Observe(float64(len(years)))
	s.logger.Debug("summary built",
		"years_requested", len(years),
		"years_failed", len(diags),
		"cells", summary.Len(),
	)

	return Report{Summary: summary, Diagnostics: diags}, nil
}

// bindRows concatenates the successful frames. ok is false when none loaded.
func bindRows(tables []YearTable) (dataframe.DataFrame, bool) {
	var combined dataframe.DataFrame
	ok := false
	for _, t := range tables {
		if !t.OK() {
			continue
		}
		if !ok {
			combined, ok = t.Frame, true
			continue
		}
		combined = combined.RBind(t.Frame)
	}
	return combined, ok
}

func countMonths(summary *domain.Summary, df dataframe.DataFrame) error {
	if df.Err != nil {
		return df.Err
	}
	years, err := df.Col(domain.ColYear).Int()
	if err != nil {
		return err
	}
	months, err := df.Col(domain.ColMonth).Int()
	if err != nil {
		return err
	}
	for i := range years {
		summary.Add(years[i], months[i])
	}
	return nil
}
