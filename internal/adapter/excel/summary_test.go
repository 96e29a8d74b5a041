package excel

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

func intPtr(n int) *int { return &n }

func sampleTable() domain.SummaryTable {
	return domain.SummaryTable{
		Years: []int{2013, 2014},
		Rows: []domain.SummaryRow{
			{Month: 1, Counts: []*int{intPtr(3), nil}},
			{Month: 2, Counts: []*int{intPtr(1), intPtr(4)}},
		},
		GeneratedAt: time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC),
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"MONTH", "2013", "2014"}, rows[0])
	assert.Equal(t, []string{"1", "3"}, rows[1], "null cell stays blank")
	assert.Equal(t, []string{"2", "1", "4"}, rows[2])

	v, err := f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestWriteSummary_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, domain.SummaryTable{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"MONTH"}}, rows)
}

func TestSaveSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, SaveSummary(path, sampleTable()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
}
