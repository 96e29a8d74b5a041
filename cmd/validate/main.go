// Command validate performs integrity checks over a directory of yearly FARS
// accident files. It verifies that each file is readable, carries the columns
// the census tools depend on, holds values in their documented ranges, and
// that the monthly summary accounts for every row. It reports problems and
// never rewrites or filters the data.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/mock -years 2013,2014,2015
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/observability"
	"github.com/couchcryptid/fars-census-service/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// yearFile is one loaded yearly file.
type yearFile struct {
	year  int
	frame dataframe.DataFrame
	// monthless counts rows without a MONTH, filled in by validateValues.
	monthless int
}

func main() {
	dataDir := flag.String("data-dir", ".", "directory containing accident_<year>.csv.bz2 files")
	yearList := flag.String("years", "", "comma separated census years")
	flag.Parse()

	if *yearList == "" {
		flag.Usage()
		os.Exit(1)
	}

	years, err := domain.ParseYears(strings.Split(*yearList, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, dataset.Dir(*dataDir), years))
}

func run(out io.Writer, dir dataset.Dir, years []int) int {
	fmt.Fprintln(out, "=== FARS Data Integrity Validation ===")
	fmt.Fprintln(out)

	files, load := loadFiles(dir, years)
	phases := []*phase{
		load,
		validateColumns(files),
		validateValues(out, files),
		validateSummary(dir, files),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Files: %d of %d requested, %d rows\n", len(files), len(years), countRows(files))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func countRows(files []yearFile) int {
	n := 0
	for _, f := range files {
		n += f.frame.Nrow()
	}
	return n
}

// ── Phase 1: Files ──

func loadFiles(dir dataset.Dir, years []int) ([]yearFile, *phase) {
	p := &phase{name: "Phase 1: Files present and readable"}
	var files []yearFile
	for _, year := range years {
		df, err := dir.ReadYear(year)
		if err != nil {
			p.errorf("%d: %v", year, err)
			continue
		}
		files = append(files, yearFile{year: year, frame: df})
	}
	return files, p
}

// ── Phase 2: Columns ──

func validateColumns(files []yearFile) *phase {
	p := &phase{name: "Phase 2: Required columns"}
	for _, f := range files {
		if err := dataset.RequireColumns(f.frame, domain.ColState, domain.ColMonth, domain.ColLatitude, domain.ColLongitude); err != nil {
			p.errorf("%d: %v", f.year, err)
		}
	}
	return p
}

// ── Phase 3: Values ──
// MONTH must be present and within 1..12, and coordinates either valid or a
// known sentinel. Sentinel counts are reported, not treated as failures.

func validateValues(out io.Writer, files []yearFile) *phase {
	p := &phase{name: "Phase 3: Value ranges"}
	for i := range files {
		f := &files[i]
		checkMonths(p, f)

		records, err := dataset.Accidents(f.frame)
		if err != nil {
			p.errorf("%d: %v", f.year, err)
			continue
		}
		missing := 0
		for i, r := range records {
			latMissing := domain.IsMissingLatitude(r.Latitude)
			lonMissing := domain.IsMissingLongitude(r.Longitude)
			if latMissing || lonMissing {
				missing++
			}
			if !latMissing && r.Latitude < -90 {
				p.errorf("%d row %d: LATITUDE %v out of range", f.year, i+1, r.Latitude)
			}
			if !lonMissing && r.Longitude < -180 {
				p.errorf("%d row %d: LONGITUD %v out of range", f.year, i+1, r.Longitude)
			}
		}
		fmt.Fprintf(out, "%d: %d rows, %d with sentinel coordinates\n", f.year, len(records), missing)
	}
	return p
}

func checkMonths(p *phase, f *yearFile) {
	projected, skipped, err := dataset.ProjectMonths(f.frame, f.year)
	if err != nil {
		p.errorf("%d: %v", f.year, err)
		return
	}
	f.monthless = skipped
	if skipped > 0 {
		p.errorf("%d: %d rows without MONTH", f.year, skipped)
	}
	months, err := projected.Col(domain.ColMonth).Int()
	if err != nil {
		p.errorf("%d: %v", f.year, err)
		return
	}
	for _, m := range months {
		if m < 1 || m > 12 {
			p.errorf("%d: MONTH %d outside 1..12", f.year, m)
		}
	}
}

// ── Phase 4: Summary ──
// The monthly summary must account for every row that carries a MONTH.

func validateSummary(dir dataset.Dir, files []yearFile) *phase {
	p := &phase{name: "Phase 4: Summary accounts for all rows"}
	if len(files) == 0 {
		return p
	}

	years := make([]int, len(files))
	for i, f := range files {
		years[i] = f.year
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Unregistered metrics: the report exposes no /metrics endpoint.
	s := pipeline.NewSummarizer(dir, logger, observability.NewMetricsForTesting())
	report, err := s.SummarizeYears(years)
	if err != nil {
		p.errorf("summarize: %v", err)
		return p
	}

	table := report.Summary.Table()
	for _, f := range files {
		col := -1
		for i, y := range table.Years {
			if y == f.year {
				col = i
			}
		}
		total := 0
		for _, row := range table.Rows {
			if col >= 0 && row.Counts[col] != nil {
				total += *row.Counts[col]
			}
		}
		if want := f.frame.Nrow() - f.monthless; total != want {
			p.errorf("%d: summary counts %d rows, file has %d with a MONTH", f.year, total, want)
		}
	}
	return p
}
