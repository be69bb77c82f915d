package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/nestroute/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "routerd.json"

	// DefaultPort is the default HTTP port.
	DefaultPort = 7070

	// DefaultHost is the default bind address.
	DefaultHost = "localhost"

	// DefaultManifest is the manifest used when none is configured.
	DefaultManifest = "routes.yaml"

	// DefaultNamespace prefixes every exported metric.
	DefaultNamespace = "routerd"
)

// Config represents the complete routerd.json configuration.
type Config struct {
	// Server contains HTTP and WebSocket settings.
	Server ServerConfig `json:"server"`

	// Manifest locates the route manifest.
	Manifest ManifestConfig `json:"manifest"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// WSPath is the WebSocket endpoint (default: "/ws").
	WSPath string `json:"wsPath,omitempty"`

	// AllowedOrigins lists origins accepted on upgrade. Empty means
	// same-origin only; "*" accepts everything.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// ManifestConfig locates the route manifest.
type ManifestConfig struct {
	// Source is a file path or an s3://bucket/key URL.
	Source string `json:"source,omitempty"`

	// Region is the AWS region used for s3:// sources.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// Watch reloads file manifests when they change.
	Watch bool `json:"watch,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled"`
	TracerName string `json:"tracerName,omitempty"`

	// Exporter is stdout or otlp.
	Exporter string `json:"exporter,omitempty"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `json:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty"`

	// SampleRatio is the fraction of transitions traced (default: 1).
	SampleRatio float64 `json:"sampleRatio,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads routerd.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R101").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Pass --config, or run routerd without one to use the defaults")
		}
		return nil, errors.New("R102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		rerr := errors.New("R102").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
		if se, ok := err.(*json.SyntaxError); ok {
			line, col := position(data, se.Offset)
			rerr.WithLocation(path, line, col)
		}
		return nil, rerr
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = 1 + strings.Count(string(prefix), "\n")
	col = int(offset) - strings.LastIndex(string(prefix), "\n")
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("R102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("R102").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = "/ws"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Manifest.Source == "" {
		c.Manifest.Source = DefaultManifest
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "github.com/vango-dev/nestroute"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4317"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("R103").
			WithDetail("server.port is " + strconv.Itoa(c.Server.Port) + "; it must be between 1 and 65535")
	}
	for field, p := range map[string]string{"server.wsPath": c.Server.WSPath, "metrics.path": c.Metrics.Path} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("R104").
				WithDetail(field + " is " + strconv.Quote(p)).
				WithSuggestion("Use an absolute path such as \"/ws\"")
		}
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("R107").
			WithDetail("server.shutdownTimeout is not a duration").
			Wrap(err)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New("R105").WithDetail("log.level is " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("R106").WithDetail("log.format is " + strconv.Quote(c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp":
	default:
		return errors.New("R108").WithDetail("tracing.exporter is " + strconv.Quote(c.Tracing.Exporter))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("R108").WithDetail("tracing.sampleRatio must be between 0 and 1")
	}
	if strings.HasPrefix(c.Manifest.Source, "s3://") && c.Manifest.Watch {
		return errors.New("R107").
			WithDetail("manifest.watch only applies to file manifests").
			WithSuggestion("Disable manifest.watch or use a local file")
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ShutdownTimeout returns the parsed graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ManifestPath resolves a file manifest relative to the config directory.
// Object storage sources are returned unchanged.
func (c *Config) ManifestPath() string {
	src := c.Manifest.Source
	if strings.Contains(src, "://") || filepath.IsAbs(src) || c.Dir() == "" {
		return src
	}
	return filepath.Join(c.Dir(), src)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[strings.ToLower(c.Log.Level)]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
