package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Geocoder deployments.
const (
	GeocoderProduction = "production"
	GeocoderTest       = "test"
	GeocoderDelivery   = "delivery"
	GeocoderLocal      = "local"
)

// Config holds the configuration settings for the batch geocoder.
type Config struct {
	Env                string         // Env is the current environment: local, development, production.
	GeocoderEnv        string         // GeocoderEnv selects the geocoder deployment.
	GeocoderURL        string         // GeocoderURL overrides the deployment base URL.
	ProviderType       string         // ProviderType specifies which geocoding provider to use.
	APIKey             string         // APIKey is sent to the provider when set.
	RateLimit          int            // RateLimit caps provider requests per second.
	Concurrency        int            // Concurrency caps in-flight requests per batch, 0 means unlimited.
	Timeout            time.Duration  // Timeout bounds a single provider request.
	Port               int            // Port is the HTTP API port.
	AdminAreas         bool           // AdminAreas enables the health service area lookup.
	OutputSRS          int            // OutputSRS is the EPSG code of returned coordinates.
	LocationDescriptor string         // LocationDescriptor selects which point of a site is returned.
	Database           PostgresConfig // Database holds the optional postgres configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address, empty disables persistence.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad reads the .env file and the environment, and panics on values it cannot parse.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEOBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("geocoder_env", GeocoderProduction)
	v.SetDefault("provider_type", string(geocoding.ProviderTypeBCGeocoder))
	v.SetDefault("rate_limit", "50")
	v.SetDefault("concurrency", "0")
	v.SetDefault("timeout", "30s")
	v.SetDefault("port", "8080")
	v.SetDefault("admin_areas", "false")
	v.SetDefault("output_srs", "4326")
	v.SetDefault("location_descriptor", "any")

	for key, env := range map[string]string{
		"db.host":     "DB_HOST",
		"db.port":     "DB_PORT",
		"db.username": "DB_USERNAME",
		"db.password": "DB_PASSWORD",
		"db.name":     "DB_NAME",
	} {
		_ = v.BindEnv(key, env)
	}
	v.SetDefault("db.port", "5432")

	rateLimit, err := strconv.Atoi(v.GetString("rate_limit"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer type")
	}

	concurrency, err := strconv.Atoi(v.GetString("concurrency"))
	if err != nil {
		panic("failed to parse concurrency from configuration, must be an integer type")
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		panic("failed to parse timeout from configuration")
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for http server from configuration")
	}

	adminAreas, err := strconv.ParseBool(v.GetString("admin_areas"))
	if err != nil {
		panic("failed to parse admin areas flag from configuration, must be a boolean")
	}

	outputSRS, err := strconv.Atoi(v.GetString("output_srs"))
	if err != nil {
		panic("failed to parse output SRS from configuration, must be an EPSG code")
	}

	return &Config{
		Env:                v.GetString("env"),
		GeocoderEnv:        v.GetString("geocoder_env"),
		GeocoderURL:        v.GetString("geocoder_url"),
		ProviderType:       v.GetString("provider_type"),
		APIKey:             v.GetString("provider_key"),
		RateLimit:          rateLimit,
		Concurrency:        concurrency,
		Timeout:            timeout,
		Port:               port,
		AdminAreas:         adminAreas,
		OutputSRS:          outputSRS,
		LocationDescriptor: v.GetString("location_descriptor"),
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.username"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}
}

// BaseURL returns the geocoder endpoint. An explicit URL wins over the deployment.
func (c *Config) BaseURL() string {
	if c.GeocoderURL != "" {
		return c.GeocoderURL
	}

	switch c.GeocoderEnv {
	case GeocoderTest:
		return geocoding.TestBaseURL
	case GeocoderDelivery:
		return geocoding.DeliveryBaseURL
	case GeocoderLocal:
		return geocoding.LocalBaseURL
	default:
		return geocoding.ProductionBaseURL
	}
}

// MapEnv returns the environment code the map viewer expects, empty for production.
func (c *Config) MapEnv() string {
	switch c.GeocoderEnv {
	case GeocoderTest:
		return "tst"
	case GeocoderDelivery:
		return "dlv"
	case GeocoderLocal:
		return "lg"
	default:
		return ""
	}
}

// Request returns the parameters sent with every address.
func (c *Config) Request() geocoding.Request {
	return geocoding.Request{
		OutputSRS:          c.OutputSRS,
		LocationDescriptor: c.LocationDescriptor,
	}
}
