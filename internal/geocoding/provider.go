package geocoding

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/geobatch/internal/models"
)

// Provider is an interface that defines a method for geocoding an address request.
// The Geocode method returns the best match, or an error when the request failed
// or no match was found.
type Provider interface {
	Geocode(ctx context.Context, req Request) (*models.GeocodeResult, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
