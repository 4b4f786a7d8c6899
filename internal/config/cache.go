package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionCacheConfig holds settings for the per-client locator sessions.
type SessionCacheConfig struct {
	SessionLRUSize       int
	SessionLRUTTLMinutes int
	EnableSessions       bool
}

const (
	defaultSessionLRUSize    = 1000
	defaultSessionTTLMinutes = 15
)

// GetSessionCacheConfig returns the session configuration from environment
// variables or defaults
func GetSessionCacheConfig() *SessionCacheConfig {
	config := &SessionCacheConfig{
		SessionLRUSize:       getEnvInt("CACHE_SESSION_LRU_SIZE", defaultSessionLRUSize),
		SessionLRUTTLMinutes: getEnvInt("CACHE_SESSION_TTL_MINUTES", defaultSessionTTLMinutes),
		EnableSessions:       getEnvBool("CACHE_ENABLE_SESSIONS", true),
	}

	log.Debug().
		Int("SessionLRUSize", config.SessionLRUSize).
		Int("SessionLRUTTLMinutes", config.SessionLRUTTLMinutes).
		Bool("EnableSessions", config.EnableSessions).
		Msg("Session cache configuration loaded")

	return config
}

func (c *SessionCacheConfig) GetSessionTTL() time.Duration {
	return time.Duration(c.SessionLRUTTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
