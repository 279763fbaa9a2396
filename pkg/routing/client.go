package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mealora/mealora-backend/pkg/enums"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/types"
)

const (
	defaultTimeout             = 30 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("routing base url is required")

// Profile selects the routing profile used by the oracle.
type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileCycling Profile = "cycling"
)

// RouteSummary is the normalized route measurement returned by the oracle.
type RouteSummary struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Client wraps the OSRM-style routing oracle used for distance estimates.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the routing client for the given oracle base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// Route asks the oracle for the route between origin and destination.
func (c *Client) Route(ctx context.Context, profile Profile, origin, destination types.GeographyPoint) (*RouteSummary, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "routing client not configured")
	}
	if !origin.IsFinite() || !destination.IsFinite() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route endpoints must be finite coordinates")
	}
	if profile == "" {
		profile = ProfileDriving
	}

	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		strings.TrimRight(c.baseURL, "/"), profile,
		origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build route request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute route request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "route request failed")
	}

	var apiResp struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode route response")
	}

	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("routing oracle returned no route (code %s)", apiResp.Code))
	}

	return &RouteSummary{
		DistanceMeters:  apiResp.Routes[0].Distance,
		DurationSeconds: apiResp.Routes[0].Duration,
	}, nil
}

// ProfileForVehicle maps a courier vehicle onto the oracle profile.
func ProfileForVehicle(vehicle enums.Vehicle) Profile {
	if vehicle == enums.VehicleBicycle {
		return ProfileCycling
	}
	return ProfileDriving
}
