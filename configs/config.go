package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "fdamcp"

	// DefaultOpenFDABaseURL is used when neither the environment nor the config file names one.
	DefaultOpenFDABaseURL = "https://api.fda.gov"

	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	OpenFDABaseURL string   `yaml:"openfda_base_url"`
	PopularDrugs   []string `yaml:"popular_drugs"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "FDAMCP_", overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env). Empty means no file.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-or-env fields; env wins when set.
	OpenFDABaseURL string   `envconfig:"OPENFDA_BASE_URL"`
	PopularDrugs   []string `envconfig:"POPULAR_DRUGS"`

	// Environment-only fields
	Transport                string        `envconfig:"TRANSPORT" default:"stdio"`
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminAddr                string        `envconfig:"ADMIN_ADDR" default:":8081"`
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFile                  string        `envconfig:"LOG_FILE"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	OtelTracesStdout         bool          `envconfig:"OTEL_TRACES_STDOUT" default:"false"`
}

// ParseLogLevel maps DEBUG, INFO, WARNING (or WARN) and ERROR, in any case, to a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be one of DEBUG, INFO, WARNING, ERROR", level)
	}
}

// ParsedLogLevel returns the slog.Level for the configured LogLevel.
func (c *Config) ParsedLogLevel() (slog.Level, error) {
	return ParseLogLevel(c.LogLevel)
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	if _, err := c.ParsedLogLevel(); err != nil {
		return err
	}
	switch c.Transport {
	case TransportStdio, TransportSSE:
	default:
		return fmt.Errorf("invalid transport %q: must be %s or %s", c.Transport, TransportStdio, TransportSSE)
	}
	if c.HTTPClientTimeout <= 0 {
		return fmt.Errorf("invalid HTTP client timeout %s: must be positive", c.HTTPClientTimeout)
	}
	return nil
}

// Load loads configuration first from environment variables (to get the file path),
// then from the YAML file if one is named, and lets environment values override the file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if cfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(cfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", cfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", cfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", cfg.ConfigFilePath)
	}

	if cfg.OpenFDABaseURL == "" {
		cfg.OpenFDABaseURL = fileCfg.OpenFDABaseURL
	}
	if cfg.OpenFDABaseURL == "" {
		cfg.OpenFDABaseURL = DefaultOpenFDABaseURL
	}
	if len(cfg.PopularDrugs) == 0 {
		cfg.PopularDrugs = cleanDrugNames(fileCfg.PopularDrugs)
	}

	return &cfg, nil
}

func cleanDrugNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
