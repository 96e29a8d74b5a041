// Command genmock writes synthetic FARS accident files for local runs and
// demos. Records are deterministic per year and follow the census conventions,
// including sentinel coordinates for a share of rows.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -years 2013,2014,2015 -count 5000
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write accident_<year>.csv.bz2 files into")
	yearList := flag.String("years", "2013,2014,2015", "comma separated census years")
	count := flag.Int("count", 5000, "records per year")
	missingRate := flag.Float64("missing-rate", 0.02, "share of records with sentinel coordinates")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *count < 1 || *missingRate < 0 || *missingRate > 1 {
		return fmt.Errorf("-count must be positive and -missing-rate within [0, 1]")
	}

	years, err := domain.ParseYears(strings.Split(*yearList, ","))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	for _, year := range years {
		records := fixture.Generate(year, fixture.Options{Count: *count, MissingRate: *missingRate})
		path, err := fixture.WriteYear(*out, year, records)
		if err != nil {
			return fmt.Errorf("writing %d: %w", year, err)
		}
		log.Printf("wrote %s: %d records", path, len(records))
		printStats(records)
	}
	return nil
}

// printStats prints per-state counts and sentinel totals for updating test assertions.
func printStats(records []domain.AccidentRecord) {
	states := map[int]int{}
	missing := 0
	for _, r := range records {
		states[r.State]++
		if domain.IsMissingLatitude(r.Latitude) || domain.IsMissingLongitude(r.Longitude) {
			missing++
		}
	}

	codes := make([]int, 0, len(states))
	for code := range states {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	fmt.Printf("  states:")
	for _, code := range codes {
		fmt.Printf(" %d=%d", code, states[code])
	}
	fmt.Printf("\n  sentinel coordinates: %d\n", missing)
}
