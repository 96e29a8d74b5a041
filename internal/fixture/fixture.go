// Package fixture writes synthetic FARS accident files. It backs the genmock
// command and the package tests that need real files on disk.
package fixture

import (
	"compress/gzip"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// stateCenters approximates a handful of state centroids for generated coordinates.
var stateCenters = map[int]domain.Point{
	1:  {Lon: -86.8, Lat: 32.8},  // Alabama
	6:  {Lon: -119.4, Lat: 37.2}, // California
	12: {Lon: -81.7, Lat: 28.1},  // Florida
	36: {Lon: -75.5, Lat: 42.9},  // New York
	48: {Lon: -99.3, Lat: 31.5},  // Texas
}

// AccidentFrame builds a FARS-shaped frame for year. ST_CASE, YEAR, and DAY
// ride along to mimic the extra census columns.
func AccidentFrame(year int, records []domain.AccidentRecord) dataframe.DataFrame {
	n := len(records)
	cases := make([]int, n)
	states := make([]int, n)
	months := make([]int, n)
	days := make([]int, n)
	years := make([]int, n)
	lats := make([]float64, n)
	lons := make([]float64, n)
	for i, r := range records {
		cases[i] = r.State*100000 + i + 1
		states[i] = r.State
		months[i] = r.Month
		days[i] = i%28 + 1
		years[i] = year
		lats[i] = r.Latitude
		lons[i] = r.Longitude
	}

	return dataframe.New(
		series.New(states, series.Int, domain.ColState),
		series.New(cases, series.Int, "ST_CASE"),
		series.New(days, series.Int, "DAY"),
		series.New(months, series.Int, domain.ColMonth),
		series.New(years, series.Int, "YEAR"),
		series.New(lats, series.Float, domain.ColLatitude),
		series.New(lons, series.Float, domain.ColLongitude),
	)
}

// WriteYear writes records as dir/accident_<year>.csv.bz2 and returns the path.
func WriteYear(dir string, year int, records []domain.AccidentRecord) (string, error) {
	path := filepath.Join(dir, domain.Filename(year))
	if err := WriteFrame(path, AccidentFrame(year, records)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFrame writes df as CSV to path, compressed according to its suffix.
func WriteFrame(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("frame for %s: %w", path, df.Err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w, err := compressor(path, f)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteText writes raw CSV text to path, compressed according to its suffix.
// It covers malformed or sparse files that a frame cannot express.
func WriteText(path, text string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w, err := compressor(path, f)
	if err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressor(path string, w io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(path, ".bz2"):
		return bzip2.NewWriter(w, nil)
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewWriter(w), nil
	default:
		return nopCloser{w}, nil
	}
}

// Options controls synthetic record generation.
type Options struct {
	// Count is the number of records per year.
	Count int
	// MissingRate is the probability that a record carries sentinel coordinates.
	MissingRate float64
}

// Generate produces deterministic pseudo-random accident records for year.
func Generate(year int, opts Options) []domain.AccidentRecord {
	rng := rand.New(rand.NewPCG(uint64(year), 0xFA125)) //nolint:gosec // synthetic data
	codes := []int{1, 6, 12, 36, 48}

	records := make([]domain.AccidentRecord, opts.Count)
	for i := range records {
		state := codes[rng.IntN(len(codes))]
		center := stateCenters[state]
		rec := domain.AccidentRecord{
			State:     state,
			Month:     rng.IntN(12) + 1,
			Latitude:  center.Lat + rng.Float64()*2 - 1,
			Longitude: center.Lon + rng.Float64()*2 - 1,
		}
		if rng.Float64() < opts.MissingRate {
			rec.Latitude = 99.9999
			rec.Longitude = 999.9999
		}
		records[i] = rec
	}
	return records
}

// Monthly returns count records for state in month, all at the state's centroid.
func Monthly(state, month, count int) []domain.AccidentRecord {
	center, ok := stateCenters[state]
	if !ok {
		center = domain.Point{Lon: -98.5, Lat: 39.8}
	}
	records := make([]domain.AccidentRecord, count)
	for i := range records {
		records[i] = domain.AccidentRecord{
			State:     state,
			Month:     month,
			Latitude:  center.Lat,
			Longitude: center.Lon,
		}
	}
	return records
}
