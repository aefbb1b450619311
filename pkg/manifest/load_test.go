package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "manifest.toml", `
[script]
path = "app.lua"
handler_timeout_ms = 250

[http]
max_body_bytes = 4096
read_timeout_ms = 1000
access_log = false
body_log_paths = ["/echo"]

[rate_limit]
rps = 5.0
burst = 10

[auth]
hmac_secret_env = "STEEZE_SECRET"
issuer = "steeze"
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(p), "app.lua"), cfg.Script.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.HandlerTimeout())
	assert.Equal(t, int64(4096), cfg.HTTP.MaxBodyBytes)
	assert.False(t, cfg.HTTP.AccessLog)
	assert.Equal(t, []string{"/echo"}, cfg.HTTP.BodyLogPaths)
	assert.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
	assert.Equal(t, "log", cfg.Log.Dir)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, "STEEZE_SECRET", cfg.Auth.HMACSecretEnv)

	read, write, idle := cfg.Timeouts()
	assert.Equal(t, time.Second, read)
	assert.Zero(t, write)
	assert.Zero(t, idle)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "manifest.yaml", `
script:
  path: /srv/app.lua
  shared_registry: true
log:
  dir: /var/log/steeze
http:
  disable_metrics: true
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/srv/app.lua", cfg.Script.Path)
	assert.True(t, cfg.Script.SharedRegistry)
	assert.Equal(t, "/var/log/steeze", cfg.Log.Dir)
	assert.Empty(t, cfg.HTTP.MetricsPath)
	assert.True(t, cfg.HTTP.AccessLog)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tests := map[string]string{
		"manifest.toml": "[script]\npath = \"a.lua\"\nbogus = 1\n",
		"manifest.yml":  "script:\n  path: a.lua\n  bogus: 1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, name, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvScript, "/override.lua")
	t.Setenv(EnvLogDir, "/tmp/logs")

	cfg, err := Load(writeFile(t, "manifest.toml", "[script]\npath = \"a.lua\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "/override.lua", cfg.Script.Path)
	assert.Equal(t, "/tmp/logs", cfg.Log.Dir)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr string
	}{
		"ok": {
			mutate: func(c *Config) { c.Script.Path = "a.lua" },
		},
		"missing script": {
			mutate:  func(*Config) {},
			wantErr: "script.path is required",
		},
		"negative body limit": {
			mutate: func(c *Config) {
				c.Script.Path = "a.lua"
				c.HTTP.MaxBodyBytes = -1
			},
			wantErr: "http.max_body_bytes",
		},
		"negative timeout": {
			mutate: func(c *Config) {
				c.Script.Path = "a.lua"
				c.HTTP.IdleTimeoutMS = -5
			},
			wantErr: "http.idle_timeout_ms",
		},
		"relative metrics path": {
			mutate: func(c *Config) {
				c.Script.Path = "a.lua"
				c.HTTP.MetricsPath = "metrics"
			},
			wantErr: "must start with /",
		},
		"issuer without secret": {
			mutate: func(c *Config) {
				c.Script.Path = "a.lua"
				c.Auth.Issuer = "steeze"
			},
			wantErr: "hmac_secret_env",
		},
		"negative rate": {
			mutate: func(c *Config) {
				c.Script.Path = "a.lua"
				c.RateLimit.RPS = -1
			},
			wantErr: "rate_limit",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
