package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/akravchenko/alertmap/internal/models"
)

// Nominatim queries the OSM Nominatim search API. Every failure mode
// collapses into a miss with a warn log; Resolve never surfaces an error.
// Requests are throttled through a token bucket (Nominatim's usage policy
// allows 1 req/s).
type Nominatim struct {
	baseURL   string
	userAgent string
	viewbox   string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewNominatim creates a throttled Nominatim client. viewbox, when non-empty,
// is a "left,top,right,bottom" box sent with bounded=1 to bias results into
// the target region.
func NewNominatim(baseURL, userAgent, viewbox string, timeout time.Duration, rps int) *Nominatim {
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		viewbox:   viewbox,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) Resolve(ctx context.Context, name string) (models.Coordinates, bool) {
	if err := n.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, false
	}

	params := url.Values{
		"q":      {name},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if n.viewbox != "" {
		params.Set("viewbox", n.viewbox)
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		slog.Warn("geocode request build failed", "name", name, "error", err)
		return models.Coordinates{}, false
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("geocode request failed", "name", name, "error", err)
		return models.Coordinates{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("geocode unexpected status", "name", name, "status", resp.StatusCode)
		return models.Coordinates{}, false
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		slog.Warn("geocode response decode failed", "name", name, "error", err)
		return models.Coordinates{}, false
	}
	if len(places) == 0 {
		slog.Debug("geocode no result", "name", name)
		return models.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		slog.Warn("geocode malformed latitude", "name", name, "lat", places[0].Lat)
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		slog.Warn("geocode malformed longitude", "name", name, "lon", places[0].Lon)
		return models.Coordinates{}, false
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, true
}
