package pipeline

import (
	"context"
	"io"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// PlotRecords exposes the post-filter stage so tests can drive the
// zero-match branch, which a real file cannot reach once the state is known.
func (m *StateMapper) PlotRecords(ctx context.Context, state, year int, records []domain.AccidentRecord, w io.Writer) (MapOutcome, error) {
	return m.plot(ctx, state, year, records, w)
}
