package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeBCGeocoder represents the BC Address Geocoder REST API.
	ProviderTypeBCGeocoder ProviderType = "bcgeocoder"
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
)

// defaultTimeout bounds a single geocoder HTTP round trip when none is configured.
const defaultTimeout = 10 * time.Second

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType  // Type of provider to create
	BaseURL   string        // Base URL of the geocoder (used by BC geocoder provider)
	APIKey    string        // API key (required by Google, optional for BC geocoder)
	RateLimit int           // Rate limit for requests per second, 0 disables limiting
	Timeout   time.Duration // Timeout of a single HTTP request
	Logger    *slog.Logger  // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "bcgeocoder": BC Address Geocoder (API key optional)
// - "google": Google Maps Geocoding API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeBCGeocoder:
		return newBCGeocoderProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newBCGeocoderProvider creates a BC geocoder provider.
func newBCGeocoderProvider(config ProviderConfig) (Provider, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL is required for BC geocoder provider")
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return NewBCGeocoderProvider(config.BaseURL, config.APIKey, config.RateLimit, config.Timeout, config.Logger), nil
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
