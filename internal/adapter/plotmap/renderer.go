// Package plotmap renders accident maps locally with gonum/plot. It needs no
// network access and ships no boundary data, so the base layer for
// domain.RegionState is a longitude/latitude graticule rather than state
// outlines. Configure Mapbox for outlined base maps.
package plotmap

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// Name labels this renderer in metrics and logs.
const Name = "plot"

const (
	padFraction = 0.05
	minSpanDeg  = 1.0
)

// ErrUnsupportedRegion is returned for regions other than domain.RegionState.
var ErrUnsupportedRegion = errors.New("unsupported map region")

var markerColor = color.RGBA{R: 0xd7, G: 0x30, B: 0x1f, A: 0xff}

// Renderer draws PNG scatter maps. It implements domain.Renderer.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer producing images of roughly widthPx × heightPx.
func NewRenderer(widthPx, heightPx int) *Renderer {
	return &Renderer{
		width:  pixels(widthPx),
		height: pixels(heightPx),
	}
}

// pixels converts a pixel count at the PNG canvas's 96 DPI into vg points.
func pixels(n int) vg.Length {
	return vg.Length(float64(n) * 72 / 96)
}

// Render draws the points over a graticule. Only domain.RegionState is supported.
func (r *Renderer) Render(_ context.Context, req domain.MapRequest, w io.Writer) error {
	if req.Region != domain.RegionState {
		return fmt.Errorf("%w: %q", ErrUnsupportedRegion, req.Region)
	}

	p := plot.New()
	p.Title.Text = req.Title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(req.Points))
	for i, pt := range req.Points {
		xys[i].X = pt.Lon
		xys[i].Y = pt.Lat
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = markerColor
	p.Add(scatter)

	p.X.Min, p.X.Max = req.LonRange.Padded(padFraction, minSpanDeg)
	p.Y.Min, p.Y.Max = req.LatRange.Padded(padFraction, minSpanDeg)

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("prepare png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
