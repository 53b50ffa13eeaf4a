package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains CORS and rate limiting configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ExportsDir    string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	SnapshotsDir  string `yaml:"snapshots_dir" envconfig:"SNAPSHOTS_DIR"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// SourcesConfig locates the remote datasets. Each location may be an
// http(s) URL, a file:// URL or a plain filesystem path.
type SourcesConfig struct {
	StateZHVI        string `yaml:"state_zhvi" envconfig:"STATE_ZHVI"`
	CountyZHVI       string `yaml:"county_zhvi" envconfig:"COUNTY_ZHVI"`
	MetroZHVI        string `yaml:"metro_zhvi" envconfig:"METRO_ZHVI"`
	ZipZHVI          string `yaml:"zip_zhvi" envconfig:"ZIP_ZHVI"`
	StateZORI        string `yaml:"state_zori" envconfig:"STATE_ZORI"`
	MetroZORI        string `yaml:"metro_zori" envconfig:"METRO_ZORI"`
	ZipZORI          string `yaml:"zip_zori" envconfig:"ZIP_ZORI"`
	CountyBoundaries string `yaml:"county_boundaries" envconfig:"COUNTY_BOUNDARIES"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	LoadTimeout  time.Duration `yaml:"load_timeout" envconfig:"LOAD_TIMEOUT"`
	Concurrency  int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
	MaxBytes     int64         `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// DashboardConfig tunes the views and charts
type DashboardConfig struct {
	DefaultStates  []string `yaml:"default_states" envconfig:"DEFAULT_STATES"`
	HistogramBins  int      `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS"`
	ChartWidth     int      `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight    int      `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
	PreloadOnStart bool     `yaml:"preload_on_start" envconfig:"PRELOAD_ON_START"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
}

// Load reads configuration from Default(), an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(ConfigFileEnv))
}

// LoadFrom is Load with an explicit config file. An empty path falls back to
// the well-known locations; a missing explicit path is an error.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable are left untouched, so the file and
	// default values survive.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors relative directories at the executable directory
func (c *Config) resolvePaths() error {
	if c.Paths.ExecutableDir == "" {
		paths, err := GetPaths()
		if err != nil {
			return err
		}
		c.Paths.ExecutableDir = paths.ExecutableDir
	}

	for _, dir := range []*string{&c.Paths.LogsDir, &c.Paths.ExportsDir, &c.Paths.SnapshotsDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(c.Paths.ExecutableDir, *dir)
		}
	}

	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.ExecutableDir, c.Logging.FilePath)
	}
	return nil
}

// SourceURLs returns every configured location keyed by dataset ID
func (s SourcesConfig) SourceURLs() map[string]string {
	return map[string]string{
		"state_zhvi":  s.StateZHVI,
		"county_zhvi": s.CountyZHVI,
		"metro_zhvi":  s.MetroZHVI,
		"zip_zhvi":    s.ZipZHVI,
		"state_zori":  s.StateZORI,
		"metro_zori":  s.MetroZORI,
		"zip_zori":    s.ZipZORI,
		"counties":    s.CountyBoundaries,
	}
}

// Validate checks ranges and required values, normalizing where the
// fallback is unambiguous.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output %q", c.Logging.Output)
	}

	for id, loc := range c.Sources.SourceURLs() {
		if err := validateLocation(loc); err != nil {
			return fmt.Errorf("source %s: %w", id, err)
		}
	}
	if c.Sources.FetchTimeout <= 0 {
		return fmt.Errorf("sources fetch timeout must be positive")
	}
	if c.Sources.LoadTimeout < c.Sources.FetchTimeout {
		return fmt.Errorf("sources load timeout (%s) must not be shorter than fetch timeout (%s)",
			c.Sources.LoadTimeout, c.Sources.FetchTimeout)
	}
	if c.Sources.Concurrency < 1 {
		return fmt.Errorf("sources concurrency must be at least 1")
	}
	if c.Sources.MaxBytes <= 0 {
		return fmt.Errorf("sources max bytes must be positive")
	}

	if c.Dashboard.HistogramBins < 1 || c.Dashboard.HistogramBins > MaxHistogramBins {
		return fmt.Errorf("histogram bins must be between 1 and %d", MaxHistogramBins)
	}
	if c.Dashboard.ChartWidth < 1 || c.Dashboard.ChartWidth > MaxChartDimension ||
		c.Dashboard.ChartHeight < 1 || c.Dashboard.ChartHeight > MaxChartDimension {
		return fmt.Errorf("chart size must be between 1 and %d pixels", MaxChartDimension)
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("invalid trace exporter: %q", c.Telemetry.TraceExporter)
	}

	return nil
}

func validateLocation(loc string) error {
	if loc == "" {
		return fmt.Errorf("location is required")
	}
	if !strings.Contains(loc, "://") {
		return nil
	}
	u, err := url.Parse(loc)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", loc, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("url %q has no host", loc)
		}
	case "file":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

// getConfigFilePath returns the first well-known config file that exists
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	if paths, err := GetPaths(); err == nil {
		locations = append(locations, filepath.Join(paths.ExecutableDir, "config.yaml"))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/dashboard.log",
		},
		Paths: PathsConfig{
			LogsDir:      "logs",
			ExportsDir:   "exports",
			SnapshotsDir: "snapshots",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
		Sources: SourcesConfig{
			StateZHVI:        DefaultStateZHVIURL,
			CountyZHVI:       DefaultCountyZHVIURL,
			MetroZHVI:        DefaultMetroZHVIURL,
			ZipZHVI:          DefaultZipZHVIURL,
			StateZORI:        DefaultStateZORIURL,
			MetroZORI:        DefaultMetroZORIURL,
			ZipZORI:          DefaultZipZORIURL,
			CountyBoundaries: DefaultCountyBoundariesURL,
			FetchTimeout:     2 * time.Minute,
			LoadTimeout:      5 * time.Minute,
			Concurrency:      4,
			MaxBytes:         512 << 20,
			UserAgent:        "zillowdata-dashboard/" + AppVersion,
		},
		Dashboard: DashboardConfig{
			DefaultStates:  append([]string(nil), DefaultStates...),
			HistogramBins:  DefaultHistogramBins,
			ChartWidth:     DefaultChartWidth,
			ChartHeight:    DefaultChartHeight,
			PreloadOnStart: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "zillowdata",
			TraceExporter: "none",
		},
	}
}
