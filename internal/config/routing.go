package config

import (
	"os"
	"strings"
)

const (
	envDefaultProvider   = "SCRIBER_DEFAULT_PROVIDER"
	envFallbackProviders = "SCRIBER_FALLBACK_PROVIDERS"
)

// RoutingSource feeds the provider router. Values are re-read on every
// call so an operator can repoint routing with environment variables
// while the process is running, without a restart.
type RoutingSource struct {
	cfg    *Config
	getenv func(string) string
}

func NewRoutingSource(cfg *Config) *RoutingSource {
	return &RoutingSource{cfg: cfg, getenv: os.Getenv}
}

func (s *RoutingSource) DefaultProvider() string {
	if v := strings.TrimSpace(s.getenv(envDefaultProvider)); v != "" {
		return v
	}
	return s.cfg.DefaultProvider
}

func (s *RoutingSource) FallbackProviders() []string {
	if v := strings.TrimSpace(s.getenv(envFallbackProviders)); v != "" {
		return splitList(v)
	}
	return s.cfg.FallbackProviders
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
