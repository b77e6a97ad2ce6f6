package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"googlemaps.github.io/maps"
)

// Scores assigned to Google matches, which carry no numeric confidence of their own.
const (
	googleExactScore   = 100
	googlePartialScore = 70
)

// googlePrecisionPoints maps Google location types onto precision points.
var googlePrecisionPoints = map[string]int{
	"ROOFTOP":            100,
	"RANGE_INTERPOLATED": 99,
	"GEOMETRIC_CENTER":   80,
	"APPROXIMATE":        40,
}

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrGoogleEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrGoogleEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a new GoogleProvider with the given API client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode resolves the free-form address of the request with the Google Maps Geocoding API.
// Only the address is used; geocoder specific filters have no Google equivalent.
// The location type becomes the match precision and partial matches are scored lower.
func (gp *GoogleProvider) Geocode(ctx context.Context, req Request) (*models.GeocodeResult, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", req.AddressString)

	if req.AddressString == "" {
		return nil, ErrEmptyAddress
	}

	geocodeResponse, err := gp.client.Geocode(ctx, &maps.GeocodingRequest{Address: req.AddressString})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrGoogleEmptyResponse
	}
	best := geocodeResponse[0]

	score := googleExactScore
	if best.PartialMatch {
		score = googlePartialScore
	}

	location := best.Geometry.Location

	return &models.GeocodeResult{
		FullAddress:     best.FormattedAddress,
		Score:           score,
		MatchPrecision:  best.Geometry.LocationType,
		PrecisionPoints: googlePrecisionPoints[best.Geometry.LocationType],
		Faults:          []models.Fault{},
		Coordinates:     models.Coordinates{X: location.Lng, Y: location.Lat},
	}, nil
}
