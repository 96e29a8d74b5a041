package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/fars-census-service/internal/adapter/excel"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/pipeline"
)

// SummaryService builds monthly summaries.
type SummaryService interface {
	SummarizeYears(years []int) (pipeline.Report, error)
}

// MapService renders state accident maps.
type MapService interface {
	MapState(ctx context.Context, state, year int, w io.Writer) (pipeline.MapOutcome, error)
}

// Server exposes the census API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	summaries  SummaryService
	maps       MapService
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and /api/v1 routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, summaries SummaryService, maps MapService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		summaries: summaries,
		maps:      maps,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/summary.xlsx", s.handleSummaryXLSX)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type summaryQuery struct {
	Years []string `validate:"required,min=1,dive,required"`
}

type mapQuery struct {
	State string `validate:"required"`
	Year  string `validate:"required"`
}

type summaryResponse struct {
	domain.SummaryTable
	Header      []string              `json:"header"`
	Diagnostics []pipeline.Diagnostic `json:"diagnostics"`
}

// handleSummary accepts years as a comma separated list, a repeated parameter, or both.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := s.summarize(w, r)
	if !ok {
		return
	}
	table := report.Summary.Table()
	diags := report.Diagnostics
	if diags == nil {
		diags = []pipeline.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		SummaryTable: table,
		Header:       table.Header(),
		Diagnostics:  diags,
	})
}

func (s *Server) handleSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.summarize(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := excel.WriteSummary(&buf, report.Summary.Table()); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="fars_monthly_summary.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) (pipeline.Report, bool) {
	var q summaryQuery
	for _, v := range r.URL.Query()["years"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.Years = append(q.Years, part)
			}
		}
	}
	if err := s.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("years is required"))
		return pipeline.Report{}, false
	}

	years, err := domain.ParseYears(q.Years)
	if err != nil {
		s.writeError(w, err)
		return pipeline.Report{}, false
	}
	report, err := s.summaries.SummarizeYears(years)
	if err != nil {
		s.writeError(w, err)
		return pipeline.Report{}, false
	}
	return report, true
}

// handleMap responds with a PNG, or 204 when the state/year has nothing to plot.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := mapQuery{
		State: r.URL.Query().Get("state"),
		Year:  r.URL.Query().Get("year"),
	}
	if err := s.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("state and year are required"))
		return
	}
	state, err := domain.ParseState(q.State)
	if err != nil {
		s.writeError(w, err)
		return
	}
	year, err := domain.ParseYear(q.Year)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	outcome, err := s.maps.MapState(r.Context(), state, year, &buf)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !outcome.Rendered {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(buf.Bytes()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTypeConversion), errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
