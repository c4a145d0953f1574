package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ubi-africa/ridewalk/internal/domain"
	"github.com/ubi-africa/ridewalk/internal/geo"
	"github.com/ubi-africa/ridewalk/internal/route"
)

// OSRMConfig configures an OSRM-compatible client.
type OSRMConfig struct {
	DrivingBaseURL string
	WalkingBaseURL string
	Timeout        time.Duration
}

// OSRMClient implements Client against an OSRM /route/v1 endpoint,
// requesting full geometry with annotations for Fetch and a
// geometry-free request for FetchSummary.
type OSRMClient struct {
	drivingBaseURL string
	walkingBaseURL string
	httpClient     *http.Client
}

// NewOSRMClient creates an OSRM-compatible routing client.
func NewOSRMClient(cfg OSRMConfig) *OSRMClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &OSRMClient{
		drivingBaseURL: cfg.DrivingBaseURL,
		walkingBaseURL: cfg.WalkingBaseURL,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

func (c *OSRMClient) baseURL(profile domain.Profile) string {
	if profile == domain.ProfileWalking {
		return c.walkingBaseURL
	}
	return c.drivingBaseURL
}

type osrmRoute struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Annotation struct {
				Distance []float64 `json:"distance"`
				Duration []float64 `json:"duration"`
			} `json:"annotation"`
		} `json:"legs"`
	} `json:"routes"`
}

// Fetch requests full geometry with per-segment annotations.
func (c *OSRMClient) Fetch(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (*route.Data, error) {
	url := fmt.Sprintf(
		"%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson&annotations=true&steps=false",
		c.baseURL(profile), profile, start.Lon, start.Lat, dest.Lon, dest.Lat,
	)

	data, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}

	if len(data.Routes) == 0 || len(data.Routes[0].Legs) == 0 {
		return nil, domain.ErrEmptyRoute
	}

	r := data.Routes[0]
	ann := r.Legs[0].Annotation

	geometry := make([]domain.Coordinate, len(r.Geometry.Coordinates))
	for i, c := range r.Geometry.Coordinates {
		geometry[i] = domain.Coordinate{Lon: c[0], Lat: c[1]}
	}

	return route.New(start, dest, profile, geometry, r.Distance, r.Duration, ann.Distance, ann.Duration)
}

// FetchSummary requests totals only, skipping geometry decoding.
func (c *OSRMClient) FetchSummary(ctx context.Context, start, dest domain.Coordinate, profile domain.Profile) (Summary, error) {
	url := fmt.Sprintf(
		"%s/route/v1/%s/%f,%f;%f,%f?overview=false&steps=false",
		c.baseURL(profile), profile, start.Lon, start.Lat, dest.Lon, dest.Lat,
	)

	data, err := c.do(ctx, url)
	if err != nil {
		return Summary{}, err
	}

	if len(data.Routes) == 0 {
		return Summary{}, domain.ErrEmptyRoute
	}

	return Summary{TotalDistM: data.Routes[0].Distance, TotalTimeS: data.Routes[0].Duration}, nil
}

func (c *OSRMClient) do(ctx context.Context, url string) (*osrmRoute, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("routing: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("routing upstream unreachable")
		return nil, domain.ErrRoutingUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("routing: read response: %w", err)
	}

	var result osrmRoute
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("routing: decode response: %w", err)
	}

	if result.Code != "Ok" {
		log.Warn().Str("code", result.Code).Str("url", url).Msg("routing upstream returned non-Ok code")
		return nil, domain.ErrRoutingUnavailable
	}

	return &result, nil
}

var _ Client = (*OSRMClient)(nil)

// HaversineFallback estimates a Summary directly from the great-circle
// distance, for tests and local development without a live OSRM instance.
func HaversineFallback(start, dest domain.Coordinate, metersPerSecond float64) Summary {
	d := geo.Distance(start, dest)
	return Summary{TotalDistM: d, TotalTimeS: d / metersPerSecond}
}
