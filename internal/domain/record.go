package domain

import "math"

// Column names in the FARS accident files.
const (
	ColState     = "STATE"
	ColMonth     = "MONTH"
	ColLatitude  = "LATITUDE"
	ColLongitude = "LONGITUD"

	// ColYear is the constant column added to each per-year projection.
	ColYear = "year"
)

// Sentinel thresholds: coordinates above these are unknown, not measurements.
const (
	maxLatitude  = 90
	maxLongitude = 900
)

// AccidentRecord is the typed subset of a FARS accident row the service reads.
type AccidentRecord struct {
	State     int
	Month     int
	Latitude  float64
	Longitude float64
}

// IsMissingLatitude reports whether lat is a sentinel or absent value.
func IsMissingLatitude(lat float64) bool {
	return math.IsNaN(lat) || lat > maxLatitude
}

// IsMissingLongitude reports whether lon is a sentinel or absent value.
func IsMissingLongitude(lon float64) bool {
	return math.IsNaN(lon) || lon > maxLongitude
}

// Point is a plottable marker position.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Range is a closed [Min, Max] interval. Valid is false when no value contributed.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

func (r *Range) include(v float64) {
	if !r.Valid {
		r.Min, r.Max, r.Valid = v, v, true
		return
	}
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
}

// Padded widens the range by frac of its span on each side. A span narrower
// than minSpan is widened to minSpan around its center.
func (r Range) Padded(frac, minSpan float64) (lo, hi float64) {
	span := r.Max - r.Min
	if span < minSpan {
		mid := (r.Min + r.Max) / 2
		return mid - minSpan/2, mid + minSpan/2
	}
	return r.Min - span*frac, r.Max + span*frac
}

// Sanitized holds accident coordinates after sentinel filtering.
type Sanitized struct {
	LatRange Range
	LonRange Range
	Points   []Point
	// Excluded counts records that produced no marker.
	Excluded int
}

// SanitizeCoordinates drops sentinel coordinates. Each axis range is computed
// from every non-missing value on that axis; a marker needs both coordinates.
func SanitizeCoordinates(records []AccidentRecord) Sanitized {
	var s Sanitized
	for _, r := range records {
		latOK := !IsMissingLatitude(r.Latitude)
		lonOK := !IsMissingLongitude(r.Longitude)
		if latOK {
			s.LatRange.include(r.Latitude)
		}
		if lonOK {
			s.LonRange.include(r.Longitude)
		}
		if latOK && lonOK {
			s.Points = append(s.Points, Point{Lon: r.Longitude, Lat: r.Latitude})
			continue
		}
		s.Excluded++
	}
	return s
}
