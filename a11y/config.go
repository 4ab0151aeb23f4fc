package a11y

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/a11y/rules"
	"github.com/hazyhaar/a11y/shield"
)

// Config holds all service configuration.
type Config struct {
	DBPath      string `yaml:"db_path"`
	Addr        string `yaml:"addr"`
	CatalogPath string `yaml:"catalog_path"` // empty = embedded WCAG 2.2
	LogLevel    string `yaml:"log_level"`

	// DefaultLevel is the conformance target when a request names none.
	DefaultLevel string `yaml:"default_level"`

	// MaxBody caps request bodies on the HTTP API, in bytes.
	MaxBody int64 `yaml:"max_body"`

	Fetch     FetchConfig            `yaml:"fetch"`
	Engine    rules.Config           `yaml:"engine"`
	AuditRate shield.RateLimitConfig `yaml:"audit_rate"`
}

// FetchConfig controls URL acquisition for audits.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// RenderJS escalates thin pages to a headless Chrome.
	RenderJS bool `yaml:"render_js"`
	// ChromeURL is the DevTools WebSocket of a remote Chrome. Empty launches
	// a local one when RenderJS is set.
	ChromeURL string `yaml:"chrome_url"`
	// AllowPrivate permits audits of loopback and private-network hosts.
	AllowPrivate bool `yaml:"allow_private"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "a11y.db"
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultLevel == "" {
		c.DefaultLevel = "AA"
	}
	if c.MaxBody <= 0 {
		c.MaxBody = 5 << 20
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.AuditRate.MaxRequests <= 0 {
		c.AuditRate.MaxRequests = 30
	}
	if c.AuditRate.Window <= 0 {
		c.AuditRate.Window = time.Minute
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from A11Y_DB, A11Y_ADDR, A11Y_CATALOG, A11Y_CHROME
// and LOG_LEVEL when set.
func (c *Config) ApplyEnv() {
	for key, dst := range map[string]*string{
		"A11Y_DB":      &c.DBPath,
		"A11Y_ADDR":    &c.Addr,
		"A11Y_CATALOG": &c.CatalogPath,
		"A11Y_CHROME":  &c.Fetch.ChromeURL,
		"LOG_LEVEL":    &c.LogLevel,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

// ParseLogLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
