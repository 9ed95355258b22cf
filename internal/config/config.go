// Package config loads server configuration from built-in defaults, an
// optional YAML file and TUNECAST_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

// ConfigPathEnvVar names the variable holding an explicit config file path.
const ConfigPathEnvVar = "TUNECAST_CONFIG"

// envPrefix is stripped from environment variable names.
const envPrefix = "TUNECAST_"

// DefaultConfigPaths are searched when no path is given.
var DefaultConfigPaths = []string{"tunecast.yaml", "tunecast.yml"}

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Media      MediaConfig      `koanf:"media"`
	Visualizer VisualizerConfig `koanf:"visualizer"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig configures the SQLite store. The path ":memory:" keeps
// everything in process memory.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// MediaConfig configures where imported media files live.
type MediaConfig struct {
	Root string `koanf:"root"`
}

// VisualizerConfig configures the preset catalog.
type VisualizerConfig struct {
	PresetsPath string `koanf:"presets_path"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database:   DatabaseConfig{Path: "tunecast.db"},
		Media:      MediaConfig{Root: "media"},
		Visualizer: VisualizerConfig{PresetsPath: "assets/visualizer-presets.json"},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load layers defaults, the config file and the environment. path may be
// empty, in which case TUNECAST_CONFIG and then DefaultConfigPaths are tried;
// a missing default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ConfigPathEnvVar)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envKeys maps TUNECAST_* variable names (prefix stripped, lower-cased) to
// config paths. Unlisted variables are ignored.
var envKeys = map[string]string{
	"server_addr":             "server.addr",
	"server_read_timeout":     "server.read_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_cors_origins":     "server.cors_origins",
	"database_path":           "database.path",
	"media_root":              "media.root",
	"visualizer_presets_path": "visualizer.presets_path",
	"logging_level":           "logging.level",
	"log_level":               "logging.level",
	"logging_format":          "logging.format",
	"log_format":              "logging.format",
}

func envTransformFunc(key string) string {
	return envKeys[strings.ToLower(strings.TrimPrefix(key, envPrefix))]
}

// splitCommaList turns a comma-separated string (as set from the
// environment) into a slice.
func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.addr %q: %w", c.Server.Addr, err))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if strings.TrimSpace(c.Media.Root) == "" {
		errs = append(errs, errors.New("media.root is required"))
	}
	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LoggerConfig converts the logging section for logger.NewLogger.
func (c *Config) LoggerConfig() logger.Config {
	return logger.FromSettings(c.Logging.Level, c.Logging.Format)
}

// InMemoryDatabase reports whether the store should stay in process memory.
func (c *Config) InMemoryDatabase() bool {
	return c.Database.Path == ":memory:"
}
