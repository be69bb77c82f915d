package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/nestroute/pkg/middleware"
	"github.com/vango-dev/nestroute/pkg/router"
)

// Config holds server settings.
type Config struct {
	// Address is the listen address (e.g., "localhost:7070").
	Address string

	// WSPath is the WebSocket endpoint.
	WSPath string

	// AllowedOrigins lists origins accepted on upgrade. Empty means
	// same-origin only; "*" accepts any origin.
	AllowedOrigins []string

	// ReadTimeout is how long a connection may stay silent, pongs
	// included, before it is closed.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// PingInterval is how often the server pings. It must be shorter than
	// ReadTimeout.
	PingInterval time.Duration

	// SendBuffer is the number of outbound frames queued per connection.
	// A client that falls further behind is disconnected.
	SendBuffer int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout guards against slowloris.
	ReadHeaderTimeout time.Duration

	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	// Metrics records connection and protocol counters. Its transition
	// middleware is not installed automatically; add it to Middleware.
	Metrics *middleware.Metrics

	// Middleware wraps every transition of every connection.
	Middleware []router.Middleware

	// Logger defaults to slog.Default with component=server.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:7070",
		WSPath:            "/ws",
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      25 * time.Second,
		SendBuffer:        64,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MetricsPath:       "/metrics",
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.WSPath == "" {
		c.WSPath = d.WSPath
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval == 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "server")
	}
}
