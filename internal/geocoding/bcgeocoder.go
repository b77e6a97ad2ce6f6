package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"golang.org/x/time/rate"
)

// Geocoder base URLs per deployment.
const (
	ProductionBaseURL = "https://geocoder.api.gov.bc.ca/"
	TestBaseURL       = "https://geocodertst.api.gov.bc.ca/"
	DeliveryBaseURL   = "https://geocoderdlv.api.gov.bc.ca/"
	LocalBaseURL      = "http://localhost:8080/pub/geocoder/"
)

// Common errors for the BC geocoder provider.
var (
	ErrEmptyResponse      = errors.New("geocoder returned no features")
	ErrEmptyAddress       = errors.New("geocoder provider got empty address")
	ErrInvalidCoordinates = errors.New("geocoder returned invalid coordinates")
	ErrUnexpectedStatus   = errors.New("geocoder returned unexpected status")
)

// geocoderResponse is the GeoJSON feature collection returned by addresses.json.
type geocoderResponse struct {
	Features []struct {
		Properties struct {
			FullAddress     string         `json:"fullAddress"`
			Score           int            `json:"score"`
			MatchPrecision  string         `json:"matchPrecision"`
			PrecisionPoints int            `json:"precisionPoints"`
			Faults          []models.Fault `json:"faults"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [x, y]
		} `json:"geometry"`
	} `json:"features"`
}

// BCGeocoderProvider geocodes addresses with the BC Address Geocoder REST API.
type BCGeocoderProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL of the geocoder deployment
	apiKey  string        // Optional API key sent in the apikey header
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// NewBCGeocoderProvider creates a BC geocoder provider with a default HTTP client.
func NewBCGeocoderProvider(baseURL, apiKey string, rateLimit int, timeout time.Duration, log *slog.Logger) *BCGeocoderProvider {
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}

	return &BCGeocoderProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(limit, max(rateLimit, 1)),
	}
}

// NewBCGeocoderProviderWithClient allows injecting custom HTTP client.
func NewBCGeocoderProviderWithClient(
	client HTTPClient,
	baseURL string,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *BCGeocoderProvider {
	return &BCGeocoderProvider{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Geocode sends the request to the addresses endpoint and returns the first feature.
func (bp *BCGeocoderProvider) Geocode(ctx context.Context, req Request) (*models.GeocodeResult, error) {
	const coordsListLength = 2

	if req.AddressString == "" {
		return nil, ErrEmptyAddress
	}

	if err := bp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := req.URL(bp.baseURL)
	if err != nil {
		return nil, err
	}

	bp.log.DebugContext(ctx, "Geocoder request URL", "url", reqURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if bp.apiKey != "" {
		httpReq.Header.Set("apikey", bp.apiKey)
	}

	resp, err := bp.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bp.log.ErrorContext(ctx, "Geocoder API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result geocoderResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	if len(result.Features) == 0 {
		return nil, ErrEmptyResponse
	}

	feature := result.Features[0]
	if len(feature.Geometry.Coordinates) < coordsListLength {
		return nil, ErrInvalidCoordinates
	}

	props := feature.Properties
	bp.log.DebugContext(ctx, "Geocoder found result", "address", props.FullAddress, "score", props.Score)

	return &models.GeocodeResult{
		FullAddress:     props.FullAddress,
		Score:           props.Score,
		MatchPrecision:  props.MatchPrecision,
		PrecisionPoints: props.PrecisionPoints,
		Faults:          props.Faults,
		Coordinates: models.Coordinates{
			X: feature.Geometry.Coordinates[0],
			Y: feature.Geometry.Coordinates[1],
		},
	}, nil
}
