package ratelimit

import "strings"

// unlimited is returned for endpoints that are never rate limited.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for a request, or nil when the default applies.
// Exact path matches win over prefix matches ("/achievements/" matches "/achievements/{id}/status").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		cfg := unlimited
		return &cfg
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		cfg := &configs[i]
		if cfg.Method == method && strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) {
			return cfg
		}
	}
	return nil
}
