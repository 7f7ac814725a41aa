package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures rdlink settings.
type Config struct {
	BaseURL      string
	Host         string
	PollInterval time.Duration
	Timeout      time.Duration
	TokenEnv     string
	LogLevel     string
	LogFile      string
	Theme        string
}

const (
	configRelPath       = "rdlink/config.toml"
	defaultBaseURL      = "https://api.real-debrid.com/rest/1.0"
	defaultHost         = "uptobox.com"
	defaultPollInterval = time.Second
	defaultTimeout      = 30 * time.Minute
	defaultTokenEnv     = "RD_TOKEN"
	defaultLogLevel     = "warn"
	defaultTheme        = "Nightfox"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		Host:         defaultHost,
		PollInterval: defaultPollInterval,
		Timeout:      defaultTimeout,
		TokenEnv:     defaultTokenEnv,
		LogLevel:     defaultLogLevel,
		Theme:        defaultTheme,
	}
}

// DefaultPath returns the config location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, filepath.FromSlash(configRelPath))
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL      string `toml:"base_url"`
		Host         string `toml:"host"`
		PollInterval string `toml:"poll_interval"`
		Timeout      string `toml:"timeout"`
		TokenEnv     string `toml:"token_env"`
		LogLevel     string `toml:"log_level"`
		LogFile      string `toml:"log_file"`
		Theme        string `toml:"theme"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = orDefault(raw.BaseURL, defaultBaseURL)
	cfg.Host = orDefault(raw.Host, defaultHost)
	cfg.TokenEnv = orDefault(raw.TokenEnv, defaultTokenEnv)
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.Theme = orDefault(raw.Theme, defaultTheme)

	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("parse config: poll_interval must be positive")
	}
	if cfg.Timeout, err = parseDuration("timeout", raw.Timeout, defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("parse config: timeout must not be negative")
	}

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	return cfg, nil
}

// Token returns the access token from the configured environment variable.
func (c Config) Token() string {
	name := c.TokenEnv
	if strings.TrimSpace(name) == "" {
		name = defaultTokenEnv
	}
	return strings.TrimSpace(os.Getenv(name))
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultPath())
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
