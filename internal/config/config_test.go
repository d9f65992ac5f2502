package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIBaseURL)
	assert.Equal(t, "127.0.0.1:8090", cfg.DashboardAddr)
	assert.Equal(t, 10*time.Second, cfg.ReportsInterval)
	assert.Equal(t, 15*time.Second, cfg.AnnouncementsInterval)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, int64(30), cfg.RateLimitLimit)
	assert.NotEmpty(t, cfg.SessionFile)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"APP_ENV":              "production",
		"SOS_API_URL":          "https://sos.example.org/base/?x=1",
		"SOS_REPORTS_INTERVAL": "3s",
		"SOS_HTTP_TIMEOUT":     "20s",
		"SOS_DASHBOARD_ADDR":   ":9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://sos.example.org/base", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.ReportsInterval)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.IsDevelopment())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := []map[string]string{
		{"SOS_API_URL": "ftp://example.org"},
		{"SOS_API_URL": "http://"},
		{"SOS_REPORTS_INTERVAL": "soon"},
		{"SOS_ANNOUNCEMENTS_INTERVAL": "-1s"},
		{"SOS_RATE_LIMIT_LIMIT": "many"},
		{"SOS_DASHBOARD_ADDR": "localhost"},
	}
	for _, env := range cases {
		_, err := FromEnv(envOf(env))
		assert.Error(t, err, "%v", env)
	}
}

func TestListenURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8090", ListenURL(":8090"))
	assert.Equal(t, "http://127.0.0.1:8090", ListenURL("0.0.0.0:8090"))
	assert.Equal(t, "http://localhost:8090", ListenURL("localhost:8090"))
}
