package dataset

import (
	"fmt"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// accidentColumns are required for the typed accident projection.
var accidentColumns = []string{domain.ColState, domain.ColMonth, domain.ColLatitude, domain.ColLongitude}

// RequireColumns returns ErrMissingColumn naming the first absent column.
func RequireColumns(df dataframe.DataFrame, names ...string) error {
	have := df.Names()
	for _, n := range names {
		if !slices.Contains(have, n) {
			return fmt.Errorf("%w: %s", domain.ErrMissingColumn, n)
		}
	}
	return nil
}

// ProjectMonths reduces df to an integer MONTH column plus a constant year
// column. Rows with a missing MONTH are left out and counted in skipped. A
// MONTH value that does not convert to an integer is an error.
func ProjectMonths(df dataframe.DataFrame, year int) (out dataframe.DataFrame, skipped int, err error) {
	if err := RequireColumns(df, domain.ColMonth); err != nil {
		return dataframe.DataFrame{}, 0, err
	}
	values, missing, err := intColumn(df, domain.ColMonth)
	if err != nil {
		return dataframe.DataFrame{}, 0, err
	}

	months := make([]int, 0, len(values))
	for i, m := range values {
		if missing[i] {
			skipped++
			continue
		}
		months = append(months, m)
	}
	years := make([]int, len(months))
	for i := range years {
		years[i] = year
	}

	out = dataframe.New(
		series.New(months, series.Int, domain.ColMonth),
		series.New(years, series.Int, domain.ColYear),
	)
	if out.Err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("project months: %w", out.Err)
	}
	return out, skipped, nil
}

// Accidents converts df into typed accident records. STATE and MONTH must be
// integers where present; a missing STATE or MONTH becomes 0 and missing
// coordinates become NaN.
func Accidents(df dataframe.DataFrame) ([]domain.AccidentRecord, error) {
	if err := RequireColumns(df, accidentColumns...); err != nil {
		return nil, err
	}

	states, _, err := intColumn(df, domain.ColState)
	if err != nil {
		return nil, err
	}
	months, _, err := intColumn(df, domain.ColMonth)
	if err != nil {
		return nil, err
	}
	lats := df.Col(domain.ColLatitude).Float()
	lons := df.Col(domain.ColLongitude).Float()

	records := make([]domain.AccidentRecord, len(states))
	for i := range states {
		records[i] = domain.AccidentRecord{
			State:     states[i],
			Month:     months[i],
			Latitude:  lats[i],
			Longitude: lons[i],
		}
	}
	return records, nil
}

// States returns the distinct STATE codes present in df. Missing codes are ignored.
func States(df dataframe.DataFrame) (map[int]struct{}, error) {
	if err := RequireColumns(df, domain.ColState); err != nil {
		return nil, err
	}
	codes, missing, err := intColumn(df, domain.ColState)
	if err != nil {
		return nil, err
	}
	set := make(map[int]struct{}, 64)
	for i, c := range codes {
		if !missing[i] {
			set[c] = struct{}{}
		}
	}
	return set, nil
}

// FilterState keeps the rows whose STATE equals state.
func FilterState(df dataframe.DataFrame, state int) (dataframe.DataFrame, error) {
	out := df.Filter(dataframe.F{
		Colname:    domain.ColState,
		Comparator: series.Eq,
		Comparando: state,
	})
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("filter %s == %d: %w", domain.ColState, state, out.Err)
	}
	return out, nil
}

// intColumn converts a column element by element. NA cells yield 0 and are
// flagged in missing; any other non-integer cell is an error.
func intColumn(df dataframe.DataFrame, name string) (values []int, missing []bool, err error) {
	col := df.Col(name)
	if col.Err != nil {
		return nil, nil, fmt.Errorf("column %s: %w", name, col.Err)
	}
	n := col.Len()
	values = make([]int, n)
	missing = make([]bool, n)
	for i := range n {
		e := col.Elem(i)
		if e.IsNA() {
			missing[i] = true
			continue
		}
		v, err := e.Int()
		if err != nil {
			return nil, nil, fmt.Errorf("column %s row %d: %w", name, i+1, err)
		}
		values[i] = v
	}
	return values, missing, nil
}
