package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalhood/loyalhood/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Len(t, cfg.Sites, 3)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval())
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, 30*24*time.Hour, cfg.Retention())
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Sites, cfg.Sites)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
check_interval_seconds: 60
probe_timeout_seconds: 0
sites:
  - host: example.com
    display_name: Example
  - host: api.example.com
    url: http://127.0.0.1:9000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, "example.com", cfg.Sites[0].Host)
	assert.Equal(t, "Example", cfg.Sites[0].DisplayName)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Sites[1].ProbeURL())
	assert.Equal(t, time.Minute, cfg.CheckInterval())
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "sites: [\n"},
		{name: "no sites", content: "sites: []\n"},
		{name: "missing host", content: "sites:\n  - display_name: x\n"},
		{name: "duplicate host", content: "sites:\n  - host: a\n  - host: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("STATUS_CONFIG", "")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("STATUS_API_URL", "https://status.example.com/")
	t.Setenv("ADMIN_JWT_KEY", "secret")
	t.Setenv("PUBSUB_PROJECT_ID", "proj")
	t.Setenv("PUBSUB_TOPIC", "")
	t.Setenv("CORS_ORIGINS", "https://loyalhood.xyz, https://host.loyalhood.xyz,")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "https://status.example.com", cfg.APIURL)
	assert.Equal(t, "secret", cfg.AdminJWTKey)
	assert.True(t, cfg.PubSub.Enabled())
	assert.Equal(t, "status-jobs", cfg.PubSub.Topic)
	assert.Equal(t, []string{"https://loyalhood.xyz", "https://host.loyalhood.xyz"}, cfg.CORSOrigins)
}
