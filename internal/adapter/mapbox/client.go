package mapbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// Name labels this renderer in metrics and logs.
const Name = "mapbox"

const (
	padFraction = 0.05
	minSpanDeg  = 0.5
	markerStyle = "pin-s+d7301f"

	// Web Mercator bounds accepted by the Static Images API.
	maxLat = 85.0511
	maxLon = 180.0
)

// Options configures the static image request.
type Options struct {
	Token      string
	Style      string // e.g. "mapbox/light-v11"
	Width      int
	Height     int
	MaxMarkers int
	Timeout    time.Duration
}

// Client implements domain.Renderer using the Mapbox Static Images API. The
// style's base layers supply the state outlines under the markers.
type Client struct {
	opts       Options
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mapbox static image client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL: "https://api.mapbox.com/styles/v1",
		logger:  logger,
	}
}

// Render fetches a PNG of the request's bounding box with one pin per point
// and copies it to w.
func (c *Client) Render(ctx context.Context, req domain.MapRequest, w io.Writer) error {
	points := sample(req.Points, c.opts.MaxMarkers)
	if len(points) < len(req.Points) {
		c.logger.Info("markers downsampled",
			"title", req.Title,
			"points", len(req.Points),
			"markers", len(points),
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.staticURL(req, points), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("static image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("mapbox API error: unexpected content type %q", ct)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	return nil
}

// staticURL builds /{style}/static/{overlay}/{bbox}/{w}x{h}. Mapbox uses lon,lat order.
func (c *Client) staticURL(req domain.MapRequest, points []domain.Point) string {
	markers := make([]string, len(points))
	for i, p := range points {
		markers[i] = fmt.Sprintf("%s(%.4f,%.4f)", markerStyle, p.Lon, p.Lat)
	}

	lonMin, lonMax := req.LonRange.Padded(padFraction, minSpanDeg)
	latMin, latMax := req.LatRange.Padded(padFraction, minSpanDeg)
	lonMin, lonMax = clamp(lonMin, maxLon), clamp(lonMax, maxLon)
	latMin, latMax = clamp(latMin, maxLat), clamp(latMax, maxLat)
	bbox := fmt.Sprintf("[%.4f,%.4f,%.4f,%.4f]", lonMin, latMin, lonMax, latMax)

	params := url.Values{
		"access_token": {c.opts.Token},
		"padding":      {"20"},
	}
	return fmt.Sprintf("%s/%s/static/%s/%s/%dx%d?%s",
		c.baseURL, c.opts.Style, strings.Join(markers, ","), bbox,
		c.opts.Width, c.opts.Height, params.Encode())
}

func clamp(v, limit float64) float64 {
	return max(-limit, min(limit, v))
}

// sample keeps at most n evenly spaced points so the URL stays within Mapbox limits.
func sample(points []domain.Point, n int) []domain.Point {
	if n <= 0 || len(points) <= n {
		return points
	}
	out := make([]domain.Point, n)
	step := float64(len(points)) / float64(n)
	for i := range out {
		out[i] = points[int(float64(i)*step)]
	}
	return out
}
