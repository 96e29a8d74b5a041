package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Filename returns the canonical FARS dataset filename for a year.
func Filename(year int) string {
	return fmt.Sprintf("accident_%d.csv.bz2", year)
}

// FilenameFor coerces v to a year and derives its filename.
func FilenameFor(v string) (string, error) {
	year, err := ParseYear(v)
	if err != nil {
		return "", err
	}
	return Filename(year), nil
}

// ParseYear coerces a numeric string to a year. Decimal input is truncated
// toward zero ("2013.0" → 2013). There is no range check: any integer is a
// valid year as far as filename derivation is concerned.
func ParseYear(v string) (int, error) {
	return parseInt("year", v)
}

// ParseState coerces a numeric string to a state code.
func ParseState(v string) (int, error) {
	return parseInt("state", v)
}

// ParseYears coerces each value in order. The first failure aborts.
func ParseYears(values []string) ([]int, error) {
	years := make([]int, 0, len(values))
	for _, v := range values {
		y, err := ParseYear(v)
		if err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, nil
}

func parseInt(field, v string) (int, error) {
	s := strings.TrimSpace(v)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrTypeConversion, field, v)
	}
	return int(math.Trunc(f)), nil
}
