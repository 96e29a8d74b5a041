package plotmap

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

func TestRenderer_WritesPNG(t *testing.T) {
	r := NewRenderer(400, 300)
	req := domain.MapRequest{
		Region:   domain.RegionState,
		Title:    "FARS accidents, state 1, 2013",
		LatRange: domain.Range{Min: 30.2, Max: 35.0, Valid: true},
		LonRange: domain.Range{Min: -88.4, Max: -84.9, Valid: true},
		Points: []domain.Point{
			{Lon: -86.8, Lat: 32.8},
			{Lon: -88.4, Lat: 30.2},
			{Lon: -84.9, Lat: 35.0},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), req, &buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Positive(t, img.Bounds().Dy())
}

func TestRenderer_SinglePoint(t *testing.T) {
	r := NewRenderer(200, 200)
	req := domain.MapRequest{
		Region:   domain.RegionState,
		LatRange: domain.Range{Min: 32.8, Max: 32.8, Valid: true},
		LonRange: domain.Range{Min: -86.8, Max: -86.8, Valid: true},
		Points:   []domain.Point{{Lon: -86.8, Lat: 32.8}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), req, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderer_RejectsUnknownRegion(t *testing.T) {
	r := NewRenderer(200, 200)
	req := domain.MapRequest{
		Region:   "county",
		LatRange: domain.Range{Min: 32, Max: 33, Valid: true},
		LonRange: domain.Range{Min: -87, Max: -86, Valid: true},
		Points:   []domain.Point{{Lon: -86.5, Lat: 32.5}},
	}

	var buf bytes.Buffer
	err := r.Render(context.Background(), req, &buf)
	require.ErrorIs(t, err, ErrUnsupportedRegion)
	assert.Zero(t, buf.Len())
}
