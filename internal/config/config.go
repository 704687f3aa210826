package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "STUDENTPULSE"

// ConfigFileEnv names the environment variable that points at an explicit YAML file.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// Data source kinds
const (
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"
)

// Config represents the complete application configuration.
//
// Leaf fields use split_words rather than explicit envconfig names so that
// envconfig never falls back to an unprefixed variable such as PATH or PORT.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" split_words:"true"`
	EnableCORS     bool            `yaml:"enable_cors" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true"`
	Format      string `yaml:"format" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// DataConfig describes where student records come from and how they are derived.
type DataConfig struct {
	Source          string        `yaml:"source" split_words:"true"`
	Path            string        `yaml:"path" split_words:"true"`
	Sheet           string        `yaml:"sheet" split_words:"true"`
	SpreadsheetID   string        `yaml:"spreadsheet_id" split_words:"true"`
	Range           string        `yaml:"range" split_words:"true"`
	APIKey          string        `yaml:"api_key" split_words:"true"`
	CredentialsFile string        `yaml:"credentials_file" split_words:"true"`
	Subjects        []string      `yaml:"subjects" split_words:"true"`
	MissingPolicy   string        `yaml:"missing_policy" split_words:"true"`
	ExportBOM       bool          `yaml:"export_bom" split_words:"true"`
	LoadTimeout     time.Duration `yaml:"load_timeout" split_words:"true"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" split_words:"true"`
	WriteBufferSize int           `yaml:"write_buffer_size" split_words:"true"`
	PingPeriod      time.Duration `yaml:"ping_period" split_words:"true"`
	PongWait        time.Duration `yaml:"pong_wait" split_words:"true"`
}

// TelemetryConfig controls OpenTelemetry setup
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" split_words:"true"`
	EnableTracing bool   `yaml:"enable_tracing" split_words:"true"`
	TraceExporter string `yaml:"trace_exporter" split_words:"true"`
	EnableMetrics bool   `yaml:"enable_metrics" split_words:"true"`
}

// Load builds the configuration from defaults, then an optional YAML file,
// then STUDENTPULSE_* environment variables. Later sources win.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg. Keys missing from the
// file keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks ranges and normalises values in place.
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
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		c.Logging.Level = strings.ToLower(c.Logging.Level)
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}

	return c.Data.validate()
}

func (d *DataConfig) validate() error {
	d.Source = strings.ToLower(strings.TrimSpace(d.Source))
	switch d.Source {
	case SourceCSV, SourceXLSX:
		if d.Path == "" {
			return fmt.Errorf("data path is required for %s source", d.Source)
		}
	case SourceSheets:
		if d.SpreadsheetID == "" {
			return fmt.Errorf("data spreadsheet_id is required for sheets source")
		}
		if d.Range == "" {
			return fmt.Errorf("data range is required for sheets source")
		}
		if d.APIKey == "" && d.CredentialsFile == "" {
			return fmt.Errorf("sheets source needs api_key or credentials_file")
		}
	default:
		return fmt.Errorf("unknown data source: %q", d.Source)
	}

	subjects := make([]string, 0, len(d.Subjects))
	for _, s := range d.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	if len(subjects) == 0 {
		return fmt.Errorf("at least one subject must be configured")
	}
	d.Subjects = subjects

	switch strings.ToLower(d.MissingPolicy) {
	case "", "exclude":
		d.MissingPolicy = "exclude"
	case "fail":
		d.MissingPolicy = "fail"
	default:
		return fmt.Errorf("invalid missing policy: %q", d.MissingPolicy)
	}

	if d.LoadTimeout <= 0 {
		return fmt.Errorf("data load timeout must be positive")
	}
	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			Source:        SourceCSV,
			Path:          "data/student_data.csv",
			Sheet:         "Sheet1",
			Subjects:      []string{"Math", "Science", "English"},
			MissingPolicy: "exclude",
			ExportBOM:     true,
			LoadTimeout:   30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "studentpulse",
			EnableTracing: false,
			TraceExporter: "stdout",
			EnableMetrics: true,
		},
	}
}
