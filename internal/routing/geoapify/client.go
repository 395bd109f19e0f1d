// Package geoapify provides a client for the Geoapify routing API.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/provider/resilience"
	"github.com/tripplanner/tripplanner/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "geoapify"

	// DefaultBaseURL is the Geoapify API base URL.
	DefaultBaseURL = "https://api.geoapify.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response is read.
	maxBodySize = 4 << 20
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Geoapify client.
type ClientConfig struct {
	// APIKey is the Geoapify API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the Geoapify API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-attempt resilient client behind a circuit breaker.
	HTTPClient HTTPDoer

	// CircuitBreaker configures the breaker of the default HTTP client
	// (optional, defaults to resilience.DefaultCircuitBreakerConfig).
	CircuitBreaker *resilience.CircuitBreakerConfig

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Geoapify routing API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ routing.Provider = (*Client)(nil)

// NewClient creates a new Geoapify client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		// A failed leg is retried by the next itinerary request, not here.
		clientCfg.DisableRetry = true
		if cfg.CircuitBreaker != nil {
			cb := *cfg.CircuitBreaker
			cb.Name = ProviderName
			clientCfg.CircuitBreaker = &cb
		}
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Route retrieves the distance and travel time between two points.
//
// A response without a usable route returns an error wrapping
// routing.ErrNoRouteFound. Transport failures, non-2xx statuses and
// unreadable bodies wrap routing.ErrProviderUnavailable (or
// routing.ErrRateLimitExceeded for 429).
func (c *Client) Route(ctx context.Context, req routing.RouteRequest) (*routing.RouteResult, error) {
	if err := validateCoordinates(req.Origin); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  err.Error(),
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if err := validateCoordinates(req.Destination); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  err.Error(),
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = routing.ModeDrive
	}

	query := url.Values{}
	query.Set("waypoints", req.Origin.String()+"|"+req.Destination.String())
	query.Set("mode", string(mode))
	query.Set("apiKey", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/routing?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("mode", string(mode)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting route from geoapify")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider: " + err.Error(),
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "READ_FAILED",
			Message:  "reading response body: " + err.Error(),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var payload routingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "MALFORMED_RESPONSE",
			Message:  "decoding response: " + err.Error(),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	result, err := toRouteResult(&payload)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("distance_m", result.DistanceMeters).
		Float64("duration_s", result.DurationSeconds).
		Msg("received route from geoapify")

	return result, nil
}

// toRouteResult extracts the first feature's summary.
func toRouteResult(resp *routingResponse) (*routing.RouteResult, error) {
	if len(resp.Features) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "response contains no route features",
			Err:      routing.ErrNoRouteFound,
		}
	}

	props := resp.Features[0].Properties
	if props.Distance == nil || props.Time == nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "route is missing distance or time",
			Err:      routing.ErrNoRouteFound,
		}
	}

	return &routing.RouteResult{
		DistanceMeters:  *props.Distance,
		DurationSeconds: *props.Time,
		Provider:        ProviderName,
		FetchedAt:       time.Now(),
	}, nil
}

// handleErrorResponse maps Geoapify error responses to domain errors.
// None of them is a definitive "no route" answer, so none is cached.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr errorResponse
	message := fmt.Sprintf("routing provider returned status %d", statusCode)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// validateCoordinates checks if coordinates are within valid ranges.
func validateCoordinates(c routing.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}
