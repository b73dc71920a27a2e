package geocode

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lifemap/memorymap/httpclient"
	"github.com/lifemap/memorymap/resilience"
)

// TaiwanViewBox is the regional bounding box: min lon, min lat, max lon, max lat.
const TaiwanViewBox = "119.3,21.8,122.1,25.4"

// Query is one remote search.
type Query struct {
	Text string
	// ViewBox restricts results to the box when Bounded is set.
	ViewBox      string
	Bounded      bool
	CountryCodes string
}

// Searcher runs one remote search.
type Searcher interface {
	Search(ctx context.Context, q Query) Result
}

// Nominatim searches the OpenStreetMap Nominatim API.
type Nominatim struct {
	client *httpclient.Client
}

// NewNominatim creates a searcher. Calls are rate limited and guarded by
// a circuit breaker; they are never retried.
func NewNominatim(cfg Config) (*Nominatim, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		Headers:        map[string]string{"User-Agent": cfg.UserAgent, "Accept-Language": "zh-TW,zh,en"},
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("nominatim"),
		RateLimiter:    &resilience.RateLimiterConfig{Name: "nominatim", Rate: cfg.RateLimit, Burst: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	return &Nominatim{client: client}, nil
}

// CircuitState reports the breaker state.
func (n *Nominatim) CircuitState() resilience.State { return n.client.CircuitState() }

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
}

// Search issues /search?format=jsonv2&limit=1.
func (n *Nominatim) Search(ctx context.Context, q Query) Result {
	params := map[string]string{"q": q.Text, "format": "jsonv2", "limit": "1"}
	if q.ViewBox != "" {
		params["viewbox"] = q.ViewBox
		if q.Bounded {
			params["bounded"] = "1"
		}
	}
	if q.CountryCodes != "" {
		params["countrycodes"] = q.CountryCodes
	}

	resp, err := n.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/search", Query: params})
	if err != nil {
		return transportError(err)
	}
	var hits []nominatimHit
	if err := resp.DecodeJSON(&hits); err != nil {
		return transportError(err)
	}
	if len(hits) == 0 {
		return Result{Outcome: NotFound}
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(hits[0].Lat), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(hits[0].Lon), 64)
	if latErr != nil || lngErr != nil {
		return transportError(fmt.Errorf("geocode: bad coordinates %q,%q", hits[0].Lat, hits[0].Lon))
	}
	return found(Place{Name: q.Text, DisplayName: hits[0].DisplayName, Lat: lat, Lng: lng})
}
