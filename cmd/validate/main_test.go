package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/fixture"
)

func TestRun_AllPhasesPass(t *testing.T) {
	dir := t.TempDir()
	_, err := fixture.WriteYear(dir, 2013, fixture.Generate(2013, fixture.Options{Count: 50, MissingRate: 0.1}))
	require.NoError(t, err)

	var out bytes.Buffer
	code := run(&out, dataset.Dir(dir), []int{2013})

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "2013: 50 rows")
}

func TestRun_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	records := fixture.Monthly(1, 1, 2)
	records = append(records, domain.AccidentRecord{State: 1, Month: 13, Latitude: 32, Longitude: -86})
	_, err := fixture.WriteYear(dir, 2013, records)
	require.NoError(t, err)

	var out bytes.Buffer
	code := run(&out, dataset.Dir(dir), []int{2013, 1999})

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "accident_1999.csv.bz2")
	assert.Contains(t, out.String(), "MONTH 13 outside 1..12")
	assert.Contains(t, out.String(), "Validation FAILED.")
}
