package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// DefaultStaleTime is how long cached query results count as fresh.
const DefaultStaleTime = 5 * time.Minute

// Duration is a time.Duration that parses from TOML strings ("5m")
// and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the jt configuration.
//
// Secrets (api_token, password) are never read from the config file;
// they come from the environment only.
type Config struct {
	URL     string `toml:"url" env:"JT_URL"`
	Email   string `toml:"email" env:"JT_EMAIL"`
	User    string `toml:"user" env:"JT_USER"`
	Project string `toml:"project" env:"JT_PROJECT"`
	Board   int    `toml:"board" env:"JT_BOARD"`
	JQL     string `toml:"jql" env:"JT_JQL"`

	// EpicField is the epic link field name; server installations rename
	// it per instance. Empty means the stock "Epic Link".
	EpicField string `toml:"epic_field" env:"JT_EPIC_FIELD"`

	StaleTime Duration `toml:"stale_time" env:"JT_STALE_TIME"`
	Cache     bool     `toml:"cache" env:"JT_CACHE"`

	APIToken string `toml:"-" env:"JT_API_TOKEN"`
	Password string `toml:"-" env:"JT_PASSWORD"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		StaleTime: Duration(DefaultStaleTime),
		Cache:     true,
	}
}

// DefaultPath returns the path of the config file when --config is not given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jt", "config.toml"), nil
}

// rawConfig mirrors Config for TOML parsing. Cache is a pointer so an
// absent key can be told apart from an explicit false.
type rawConfig struct {
	URL       string   `toml:"url"`
	Email     string   `toml:"email"`
	User      string   `toml:"user"`
	Project   string   `toml:"project"`
	Board     int      `toml:"board"`
	JQL       string   `toml:"jql"`
	EpicField string   `toml:"epic_field"`
	StaleTime Duration `toml:"stale_time"`
	Cache     *bool    `toml:"cache"`
}

// Load reads config from path, or from ~/.config/jt/config.toml when
// path is empty. A missing file yields Default() without error; errors
// are returned only for unreadable or invalid files. Environment
// variables (JT_URL, JT_API_TOKEN, ...) override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		var raw rawConfig
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.URL = raw.URL
		cfg.Email = raw.Email
		cfg.User = raw.User
		cfg.Project = raw.Project
		cfg.Board = raw.Board
		cfg.JQL = raw.JQL
		cfg.EpicField = raw.EpicField
		if raw.StaleTime != 0 {
			cfg.StaleTime = raw.StaleTime
		}
		if raw.Cache != nil {
			cfg.Cache = *raw.Cache
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return fmt.Errorf("invalid url %q: %w", c.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid url %q: missing host", c.URL)
		}
	}
	if c.StaleTime.Std() <= 0 {
		return fmt.Errorf("stale_time must be positive, got %s", c.StaleTime.Std())
	}
	if c.Board < 0 {
		return fmt.Errorf("board must not be negative, got %d", c.Board)
	}
	return nil
}

// RequireURL returns an error when no server URL is configured.
// Commands that talk to the server call this before building a client.
func (c *Config) RequireURL() error {
	if c.URL == "" {
		return errors.New("no server url configured: set url in the config file or JT_URL (run \"jt config init\" to create one)")
	}
	return nil
}

// IsCloud reports whether the configured server is an Atlassian cloud
// instance, which requires email + API token basic auth.
func (c *Config) IsCloud() bool {
	u, err := url.Parse(c.URL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), ".atlassian.net")
}

const defaultConfig = `# jt configuration

# Jira server base URL (required)
# Cloud:     "https://company.atlassian.net"
# Server/DC: "https://jira.internal.corp"
# url = "https://company.atlassian.net"

# Cloud auth: email + API token (token via JT_API_TOKEN env var)
# email = "me@company.com"

# Server/DC auth: either a personal access token via JT_API_TOKEN,
# or user + JT_PASSWORD env var
# user = "jdoe"

# Default project key for "jt boards" and "jt issues"
# project = "PROJ"

# Default board id for "jt issues" (0 = pick interactively)
# board = 0

# Default JQL for "jt issues" when no board is set
# jql = "assignee = currentUser() AND resolution = Unresolved ORDER BY updated DESC"

# Epic link field name for "jt epics", when your server renames it
# epic_field = "Epic Link"

# How long cached results count as fresh before jt refreshes them
# stale_time = "5m"

# Set to false to bypass the local cache entirely
# cache = true
`

// Init creates a default config file at ~/.config/jt/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := DefaultPath()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
