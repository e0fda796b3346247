package config

import "strings"

// HTTPConfig contains the ops HTTP server configuration.
type HTTPConfig struct {
	// Enabled starts the health and status server.
	Enabled bool `env:"HTTP_ENABLED" envDefault:"false"`
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr = strings.TrimSpace(h.Addr); h.Addr == "" {
		h.Addr = ":8080"
	}
}
