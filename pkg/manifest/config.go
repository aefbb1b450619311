package manifest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the top-level manifest.
type Config struct {
	Script    Script    `toml:"script" yaml:"script"`
	Log       Log       `toml:"log" yaml:"log"`
	HTTP      HTTP      `toml:"http" yaml:"http"`
	RateLimit RateLimit `toml:"rate_limit" yaml:"rate_limit"`
	Auth      Auth      `toml:"auth" yaml:"auth"`
}

type Script struct {
	Path             string `toml:"path" yaml:"path"`
	HandlerTimeoutMS int    `toml:"handler_timeout_ms" yaml:"handler_timeout_ms"`
	SharedRegistry   bool   `toml:"shared_registry" yaml:"shared_registry"`
}

type Log struct {
	Dir string `toml:"dir" yaml:"dir"`
}

type HTTP struct {
	MaxBodyBytes   int64    `toml:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeoutMS  int      `toml:"read_timeout_ms" yaml:"read_timeout_ms"`
	WriteTimeoutMS int      `toml:"write_timeout_ms" yaml:"write_timeout_ms"`
	IdleTimeoutMS  int      `toml:"idle_timeout_ms" yaml:"idle_timeout_ms"`
	MetricsPath    string   `toml:"metrics_path" yaml:"metrics_path"`
	DisableMetrics bool     `toml:"disable_metrics" yaml:"disable_metrics"`
	AccessLog      bool     `toml:"access_log" yaml:"access_log"`
	BodyLogPaths   []string `toml:"body_log_paths" yaml:"body_log_paths"`
}

type RateLimit struct {
	RPS   float64 `toml:"rps" yaml:"rps"`
	Burst int     `toml:"burst" yaml:"burst"`
}

type Auth struct {
	HMACSecretEnv string `toml:"hmac_secret_env" yaml:"hmac_secret_env"`
	Issuer        string `toml:"issuer" yaml:"issuer"`
	Audience      string `toml:"audience" yaml:"audience"`
	LeewaySeconds int    `toml:"leeway_seconds" yaml:"leeway_seconds"`
}

// Default is the manifest used when no file is given.
func Default() Config {
	return Config{
		Log:  Log{Dir: "log"},
		HTTP: HTTP{MetricsPath: "/metrics", AccessLog: true},
	}
}

// Validate normalizes defaults in place and rejects unusable values.
func (c *Config) Validate() error {
	var errs []error

	c.Script.Path = strings.TrimSpace(c.Script.Path)
	if c.Script.Path == "" {
		errs = append(errs, errors.New("script.path is required"))
	}
	if c.Script.HandlerTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("script.handler_timeout_ms: %d < 0", c.Script.HandlerTimeoutMS))
	}

	if c.Log.Dir == "" {
		c.Log.Dir = "log"
	}

	h := &c.HTTP
	if h.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("http.max_body_bytes: %d < 0", h.MaxBodyBytes))
	}
	for name, v := range map[string]int{
		"read_timeout_ms":  h.ReadTimeoutMS,
		"write_timeout_ms": h.WriteTimeoutMS,
		"idle_timeout_ms":  h.IdleTimeoutMS,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("http.%s: %d < 0", name, v))
		}
	}
	if h.DisableMetrics {
		h.MetricsPath = ""
	} else {
		if h.MetricsPath == "" {
			h.MetricsPath = "/metrics"
		}
		if !strings.HasPrefix(h.MetricsPath, "/") {
			errs = append(errs, fmt.Errorf("http.metrics_path %q must start with /", h.MetricsPath))
		}
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit: rps and burst must be >= 0"))
	}
	if c.Auth.LeewaySeconds < 0 {
		errs = append(errs, fmt.Errorf("auth.leeway_seconds: %d < 0", c.Auth.LeewaySeconds))
	}
	if c.Auth.HMACSecretEnv == "" && (c.Auth.Issuer != "" || c.Auth.Audience != "") {
		errs = append(errs, errors.New("auth: issuer/audience set without hmac_secret_env"))
	}

	return errors.Join(errs...)
}

// HandlerTimeout is Script.HandlerTimeoutMS as a duration.
func (c Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Script.HandlerTimeoutMS) * time.Millisecond
}

// Timeouts returns the engine read, write and idle timeouts. Zero means the
// server default.
func (c Config) Timeouts() (read, write, idle time.Duration) {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return ms(c.HTTP.ReadTimeoutMS), ms(c.HTTP.WriteTimeoutMS), ms(c.HTTP.IdleTimeoutMS)
}

func (c Config) AuthLeeway() time.Duration {
	return time.Duration(c.Auth.LeewaySeconds) * time.Second
}
