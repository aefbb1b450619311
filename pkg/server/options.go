package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
	"github.com/joeydtaylor/steeze-lua/pkg/dispatch"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/ratelimit"
)

const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	DefaultMetricsPath  = "/metrics"

	// ShutdownTimeout bounds Free and Release.
	ShutdownTimeout = 5 * time.Second
)

type options struct {
	log    *zap.Logger
	access *zap.Logger
	bodies []string
	reg    *action.Registry
	fault  dispatch.FaultFunc

	maxBody      int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	metricsPath  string

	rateLimit ratelimit.Config
	auth      auth.Config
}

type Option func(*options)

func defaultOptions() options {
	return options{
		log:          zap.NewNop(),
		maxBody:      dispatch.DefaultMaxBodyBytes,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		idleTimeout:  DefaultIdleTimeout,
		metricsPath:  DefaultMetricsPath,
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithAccessLog enables one access log line per request on l. Request bodies
// are included for bodyPaths only.
func WithAccessLog(l *zap.Logger, bodyPaths ...string) Option {
	return func(o *options) {
		o.access = l
		o.bodies = bodyPaths
	}
}

// WithRegistry makes the handle dispatch from reg instead of a private
// registry. Handles sharing a registry see each other's actions.
func WithRegistry(reg *action.Registry) Option { return func(o *options) { o.reg = reg } }

// WithFault replaces the fault boundary that answers failed dispatches.
func WithFault(f dispatch.FaultFunc) Option { return func(o *options) { o.fault = f } }

func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithTimeouts sets the engine timeouts; zero keeps the default.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(o *options) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if idle > 0 {
			o.idleTimeout = idle
		}
	}
}

// WithMetricsPath serves Prometheus metrics on p; "" disables the endpoint.
func WithMetricsPath(p string) Option { return func(o *options) { o.metricsPath = p } }

func WithRateLimit(cfg ratelimit.Config) Option { return func(o *options) { o.rateLimit = cfg } }

// WithAuth requires a valid bearer assertion on every action path.
func WithAuth(cfg auth.Config) Option { return func(o *options) { o.auth = cfg } }
