package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/fars-census-service/internal/adapter/excel"
	httpadapter "github.com/couchcryptid/fars-census-service/internal/adapter/http"
	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/fixture"
	"github.com/couchcryptid/fars-census-service/internal/observability"
	"github.com/couchcryptid/fars-census-service/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ domain.MapRequest, w io.Writer) error {
	_, err := w.Write([]byte("\x89PNG\r\n\x1a\nstub"))
	return err
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	dir := t.TempDir()

	var records []domain.AccidentRecord
	records = append(records, fixture.Monthly(1, 1, 2)...)
	records = append(records, fixture.Monthly(1, 3, 1)...)
	records = append(records, fixture.Monthly(6, 3, 4)...)
	_, err := fixture.WriteYear(dir, 2013, records)
	require.NoError(t, err)
	_, err = fixture.WriteYear(dir, 2014, fixture.Monthly(6, 1, 5))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	reader := dataset.Dir(dir)
	summarizer := pipeline.NewSummarizer(reader, logger, metrics)
	mapper := pipeline.NewStateMapper(reader, stubRenderer{}, "stub", logger, metrics)

	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, summarizer, mapper, logger)
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(t, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(t, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(t, fmt.Errorf("data directory: missing")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

type summaryBody struct {
	Header      []string              `json:"header"`
	Years       []int                 `json:"years"`
	Rows        []domain.SummaryRow   `json:"rows"`
	Diagnostics []pipeline.Diagnostic `json:"diagnostics"`
}

func TestSummary_SparseCellsAreNull(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/v1/summary?years=2013,2014")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body summaryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"MONTH", "2013", "2014"}, body.Header)
	require.Len(t, body.Rows, 2)

	assert.Equal(t, 1, body.Rows[0].Month)
	require.NotNil(t, body.Rows[0].Counts[0])
	assert.Equal(t, 2, *body.Rows[0].Counts[0])
	require.NotNil(t, body.Rows[0].Counts[1])
	assert.Equal(t, 5, *body.Rows[0].Counts[1])

	assert.Equal(t, 3, body.Rows[1].Month)
	require.NotNil(t, body.Rows[1].Counts[0])
	assert.Equal(t, 5, *body.Rows[1].Counts[0])
	assert.Nil(t, body.Rows[1].Counts[1], "absent cell is null, not zero")
	assert.Empty(t, body.Diagnostics)
}

func TestSummary_RepeatedParamWithInvalidYear(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/v1/summary?years=2013&years=1999")
	require.Equal(t, http.StatusOK, rec.Code)

	var body summaryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int{2013}, body.Years)
	require.Len(t, body.Diagnostics, 1)
	assert.Equal(t, 1999, body.Diagnostics[0].Year)
}

func TestSummary_BadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(srv, "/api/v1/summary")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "years is required", errorMessage(t, rec))

	rec = get(srv, "/api/v1/summary?years=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "abc")
}

func TestSummaryXLSX(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/v1/summary.xlsx?years=2013,2014")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fars_monthly_summary.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excel.SheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"MONTH", "2013", "2014"}, rows[0])
	assert.Equal(t, []string{"3", "5"}, rows[2])
}

func TestMap_RendersPNG(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/v1/map?state=1&year=2013")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestMap_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "missing params", target: "/api/v1/map?state=1", status: http.StatusBadRequest},
		{name: "non-integer state", target: "/api/v1/map?state=al&year=2013", status: http.StatusBadRequest},
		{name: "unknown state", target: "/api/v1/map?state=99&year=2013", status: http.StatusBadRequest},
		{name: "missing file", target: "/api/v1/map?state=1&year=1999", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}
