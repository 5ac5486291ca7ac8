package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" enables prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) *Config {
	if !envBool(getenv, "RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Certificate processing downloads documents and runs OCR
		{Path: "/certificates", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/certificates/stream", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/certificates/batch", Method: "POST", Limit: 5, Window: time.Hour, Burst: 1},

		// Writes
		{Path: "/achievements", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/achievements/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/achievements/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Pure text endpoints
		{Path: "/classify", Method: "POST", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/extract", Method: "POST", Limit: 300, Window: time.Minute, Burst: 50},
		{Path: "/verify", Method: "POST", Limit: 300, Window: time.Minute, Burst: 50},

		// Reads use the default limit; GET /health is unlimited (see MatchEndpoint)
	}
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
