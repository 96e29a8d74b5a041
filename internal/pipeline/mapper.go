package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/fars-census-service/internal/dataset"
	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/observability"
)

// MapOutcome describes what a MapState call drew.
type MapOutcome struct {
	State    int  `json:"state"`
	Year     int  `json:"year"`
	Matched  int  `json:"matched"`
	Plotted  int  `json:"plotted"`
	Excluded int  `json:"excluded"`
	Rendered bool `json:"rendered"`
}

// StateMapper renders one state's accidents for one year.
type StateMapper struct {
	reader       YearReader
	renderer     domain.Renderer
	rendererName string
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewStateMapper creates a StateMapper. rendererName labels render metrics.
func NewStateMapper(reader YearReader, renderer domain.Renderer, rendererName string, logger *slog.Logger, metrics *observability.Metrics) *StateMapper {
	return &StateMapper{
		reader:       reader,
		renderer:     renderer,
		rendererName: rendererName,
		logger:       logger,
		metrics:      metrics,
	}
}

// MapState reads the year's file, checks that state occurs in it, and renders
// the state's accident locations to w. A missing file or unknown state is an
// error. Sentinel coordinates are dropped before rendering.
func (m *StateMapper) MapState(ctx context.Context, state, year int, w io.Writer) (MapOutcome, error) {
	df, err := m.reader.ReadYear(year)
	if err != nil {
		return MapOutcome{}, err
	}

	states, err := dataset.States(df)
	if err != nil {
		return MapOutcome{}, err
	}
	if _, ok := states[state]; !ok {
		return MapOutcome{}, fmt.Errorf("%w: STATE number %d not found in %d data", domain.ErrInvalidState, state, year)
	}

	sub, err := dataset.FilterState(df, state)
	if err != nil {
		return MapOutcome{}, err
	}
	records, err := dataset.Accidents(sub)
	if err != nil {
		return MapOutcome{}, err
	}

	return m.plot(ctx, state, year, records, w)
}

func (m *StateMapper) plot(ctx context.Context, state, year int, records []domain.AccidentRecord, w io.Writer) (MapOutcome, error) {
	outcome := MapOutcome{State: state, Year: year, Matched: len(records)}

	if len(records) == 0 {
		m.logger.Info("no accidents to plot", "state", state, "year", year)
		m.metrics.MapsSkipped.WithLabelValues("no_accidents").Inc()
		return outcome, nil
	}

	clean := domain.SanitizeCoordinates(records)
	outcome.Excluded = clean.Excluded
	if len(clean.Points) == 0 {
		m.logger.Info("no plottable coordinates", "state", state, "year", year, "excluded", clean.Excluded)
		m.metrics.MapsSkipped.WithLabelValues("no_coordinates").Inc()
		return outcome, nil
	}

	req := domain.MapRequest{
		Region:   domain.RegionState,
		Title:    fmt.Sprintf("FARS accidents, state %d, %d", state, year),
		LatRange: clean.LatRange,
		LonRange: clean.LonRange,
		Points:   clean.Points,
	}

	start := time.Now()
	if err := m.renderer.Render(ctx, req, w); err != nil {
		return outcome, fmt.Errorf("render state %d map for %d: %w", state, year, err)
	}
	m.metrics.RenderDuration.WithLabelValues(m.rendererName).Observe(time.Since(start).Seconds())
	m.metrics.MapsRendered.WithLabelValues(m.rendererName).Inc()
	m.metrics.MapPoints.Observe(float64(len(clean.Points)))

	outcome.Plotted = len(clean.Points)
	outcome.Rendered = true
	m.logger.Debug("state map rendered",
		"state", state,
		"year", year,
		"plotted", outcome.Plotted,
		"excluded", outcome.Excluded,
	)
	return outcome, nil
}
