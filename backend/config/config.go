// Package config loads the map server settings from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBoundariesURL is the world-countries GeoJSON whose feature names
// match models.SupportedCountries.
const DefaultBoundariesURL = "https://raw.githubusercontent.com/python-visualization/folium/master/examples/data/world-countries.json"

// Config holds all server settings.
type Config struct {
	Listen      string `yaml:"listen"`
	DataFile    string `yaml:"data_file"`
	LogDir      string `yaml:"log_dir"`
	HistoryDB   string `yaml:"history_db"`
	FrontendDir string `yaml:"frontend_dir"`

	// Boundary dataset, http(s) URL or local path
	BoundariesURL string `yaml:"boundaries_url"`

	// MaxMind GeoLite2-Country database; empty disables /api/whereami
	GeoIPDB string `yaml:"geoip_db"`

	DiscordWebhookURL string `yaml:"discord_webhook_url"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig configures the admin gate and session tokens.
type AuthConfig struct {
	// Plain secret or bcrypt hash. Empty disables admin login.
	AdminPassword string `yaml:"admin_password"`
	SessionSecret string `yaml:"session_secret"`
	SessionTTL    string `yaml:"session_ttl"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		DataFile:      "country_colors.json",
		LogDir:        "./logs",
		HistoryDB:     "colormap.db",
		FrontendDir:   "./frontend/dist",
		BoundariesURL: DefaultBoundariesURL,
		Auth: AuthConfig{
			SessionTTL: "24h",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if _, err := cfg.SessionTTL(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"ADMIN_PASSWORD", &c.Auth.AdminPassword},
		{"COLORMAP_SESSION_SECRET", &c.Auth.SessionSecret},
		{"COLORMAP_LISTEN", &c.Listen},
		{"COLORMAP_DATA_FILE", &c.DataFile},
		{"COLORMAP_LOG_DIR", &c.LogDir},
		{"COLORMAP_HISTORY_DB", &c.HistoryDB},
		{"COLORMAP_BOUNDARIES_URL", &c.BoundariesURL},
		{"COLORMAP_GEOIP_DB", &c.GeoIPDB},
		{"COLORMAP_DISCORD_WEBHOOK", &c.DiscordWebhookURL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// SessionTTL parses Auth.SessionTTL, defaulting to 24h.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Auth.SessionTTL == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", c.Auth.SessionTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session_ttl must be positive, got %s", d)
	}
	return d, nil
}
