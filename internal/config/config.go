package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI and the local dashboard need to run.
type Config struct {
	Env                   string
	LogLevel              string
	APIBaseURL            string
	SessionFile           string
	DashboardAddr         string
	ReportsInterval       time.Duration
	AnnouncementsInterval time.Duration
	HTTPTimeout           time.Duration
	RateLimitLimit        int64
	RateLimitPeriod       time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load(".env")
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	env := get("APP_ENV", "development")
	cfg := &Config{
		Env:           env,
		LogLevel:      get("SOS_LOG_LEVEL", defaultLogLevel(env)),
		DashboardAddr: get("SOS_DASHBOARD_ADDR", "127.0.0.1:8090"),
		SessionFile:   get("SOS_SESSION_FILE", defaultSessionFile()),
	}

	apiURL, err := NormalizeAPIURL(get("SOS_API_URL", "http://127.0.0.1:8080"))
	if err != nil {
		return nil, fmt.Errorf("config: SOS_API_URL: %w", err)
	}
	cfg.APIBaseURL = apiURL

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"SOS_REPORTS_INTERVAL", "10s", &cfg.ReportsInterval},
		{"SOS_ANNOUNCEMENTS_INTERVAL", "15s", &cfg.AnnouncementsInterval},
		{"SOS_HTTP_TIMEOUT", "0s", &cfg.HTTPTimeout},
		{"SOS_RATE_LIMIT_PERIOD", "1m", &cfg.RateLimitPeriod},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(get(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", d.key, err)
		}
		*d.dst = v
	}

	limit, err := strconv.ParseInt(get("SOS_RATE_LIMIT_LIMIT", "30"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("config: SOS_RATE_LIMIT_LIMIT: %w", err)
	}
	cfg.RateLimitLimit = limit

	if cfg.ReportsInterval <= 0 || cfg.AnnouncementsInterval <= 0 {
		return nil, errors.New("config: poll intervals must be positive")
	}
	if err := ValidateListenAddr(cfg.DashboardAddr); err != nil {
		return nil, fmt.Errorf("config: SOS_DASHBOARD_ADDR: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether human-readable logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func defaultLogLevel(env string) string {
	if env == "production" {
		return "info"
	}
	return "debug"
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "sos-dashboard", "session.json")
}

// NormalizeAPIURL checks that raw is an http(s) URL with a host and strips
// any trailing slash, query and fragment.
func NormalizeAPIURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("api url cannot be empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api url must use http or https")
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", errors.New("api url must include a host")
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

// ValidateListenAddr accepts ":port" or "host:port".
func ValidateListenAddr(addr string) error {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return errors.New("listen address cannot be empty")
	}
	if strings.HasPrefix(trimmed, ":") {
		return nil
	}
	if _, _, err := net.SplitHostPort(trimmed); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", trimmed, err)
	}
	return nil
}

// ListenURL turns a listen address into a URL a browser can open.
func ListenURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	switch {
	case strings.HasPrefix(trimmed, ":"):
		return "http://127.0.0.1" + trimmed
	case strings.HasPrefix(trimmed, "0.0.0.0:"):
		return "http://127.0.0.1:" + strings.TrimPrefix(trimmed, "0.0.0.0:")
	case strings.HasPrefix(trimmed, "[::]:"):
		return "http://127.0.0.1:" + strings.TrimPrefix(trimmed, "[::]:")
	}
	return "http://" + trimmed
}
