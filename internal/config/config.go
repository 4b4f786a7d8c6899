package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/copbot/locator/internal/models"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int

	OverpassBaseURL string
	IPLookupBaseURL string
	UserAgent       string

	// FallbackLocation is used whenever the user's position is unknown.
	FallbackLocation   models.GeoCoordinate
	LocationTimeout    time.Duration
	SearchRadiusMeters int
	MaxRadiusMeters    int

	DirectoryRateLimit float64 // requests per second, 0 disables pacing
	DirectoryBurst     int
	PhoneRegion        string
	ListenAddr         string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxRetries = n
		}
	}
}

func WithOverpassBaseURL(url string) Option {
	return func(c *Config) {
		c.OverpassBaseURL = url
	}
}

func WithIPLookupBaseURL(url string) Option {
	return func(c *Config) {
		c.IPLookupBaseURL = url
	}
}

// WithFallbackLocation ignores coordinates outside the valid range.
func WithFallbackLocation(lat, lon float64) Option {
	return func(c *Config) {
		coord, err := models.NewGeoCoordinate(lat, lon)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid fallback location, keeping default")
			return
		}
		c.FallbackLocation = coord
	}
}

func WithLocationTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.LocationTimeout = timeout
		}
	}
}

func WithSearchRadius(meters int) Option {
	return func(c *Config) {
		if meters > 0 {
			c.SearchRadiusMeters = meters
		}
	}
}

func WithDirectoryRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.DirectoryRateLimit = perSecond
		c.DirectoryBurst = burst
	}
}

func WithPhoneRegion(region string) Option {
	return func(c *Config) {
		c.PhoneRegion = region
	}
}

func WithListenAddr(addr string) Option {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:        "production",
		LogLevel:           zerolog.InfoLevel,
		HTTPTimeout:        30 * time.Second,
		MaxRetries:         0,
		OverpassBaseURL:    "https://overpass-api.de",
		IPLookupBaseURL:    "http://ip-api.com",
		UserAgent:          "copbot-locator/1.0",
		FallbackLocation:   models.GeoCoordinate{Latitude: 13.0827, Longitude: 80.2707}, // Chennai
		LocationTimeout:    10 * time.Second,
		SearchRadiusMeters: 5000,
		MaxRadiusMeters:    50000,
		DirectoryRateLimit: 1,
		DirectoryBurst:     2,
		PhoneRegion:        "IN",
		ListenAddr:         ":8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	defaults := New()
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", defaults.HTTPTimeout)),
		WithMaxRetries(getEnvInt("DIRECTORY_MAX_RETRIES", defaults.MaxRetries)),
		WithOverpassBaseURL(getEnvOrDefault("OVERPASS_BASE_URL", defaults.OverpassBaseURL)),
		WithIPLookupBaseURL(getEnvOrDefault("IP_LOOKUP_BASE_URL", defaults.IPLookupBaseURL)),
		WithFallbackLocation(
			getFloatEnvOrDefault("FALLBACK_LATITUDE", defaults.FallbackLocation.Latitude),
			getFloatEnvOrDefault("FALLBACK_LONGITUDE", defaults.FallbackLocation.Longitude),
		),
		WithLocationTimeout(getDurationEnvOrDefault("LOCATION_TIMEOUT", defaults.LocationTimeout)),
		WithSearchRadius(getEnvInt("SEARCH_RADIUS_METERS", defaults.SearchRadiusMeters)),
		WithDirectoryRateLimit(
			getFloatEnvOrDefault("DIRECTORY_RATE_LIMIT", defaults.DirectoryRateLimit),
			getEnvInt("DIRECTORY_BURST", defaults.DirectoryBurst),
		),
		WithPhoneRegion(getEnvOrDefault("PHONE_REGION", defaults.PhoneRegion)),
		WithListenAddr(getEnvOrDefault("LISTEN_ADDR", defaults.ListenAddr)),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultValue
}
