package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// RegionState is the outline level drawn under state maps. Renderers with
// boundary data (Mapbox styles) draw state outlines; the local plot renderer
// has none and draws a longitude/latitude graticule scoped to the same extent.
const RegionState = "state"

// MapRequest describes one rendered accident map.
type MapRequest struct {
	Region   string
	Title    string
	LatRange Range
	LonRange Range
	Points   []Point
}

// Key returns a deterministic identifier for the request, suitable as a cache key.
func (r MapRequest) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%.6f,%.6f|%.6f,%.6f", r.Region, r.Title,
		r.LatRange.Min, r.LatRange.Max, r.LonRange.Min, r.LonRange.Max)
	for _, p := range r.Points {
		fmt.Fprintf(&b, "|%.6f,%.6f", p.Lon, p.Lat)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:16])
}

// Renderer draws a base map over the request's ranges and overlays its points.
type Renderer interface {
	Render(ctx context.Context, req MapRequest, w io.Writer) error
}
