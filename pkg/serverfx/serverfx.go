// Package serverfx wires a manifest into a script runtime with fx lifecycle
// hooks: OnStart runs the script, OnStop frees every server it created.
package serverfx

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/manifest"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/ratelimit"
	"github.com/joeydtaylor/steeze-lua/pkg/script"
	"github.com/joeydtaylor/steeze-lua/pkg/server"
)

// Module returns a complete Fx option set for cfg.
func Module(cfg manifest.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			provideLoggers,
			provideSystemLogger,
			provideServerOptions,
			provideRuntime,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(registerHooks),
	)
}

func provideLoggers(cfg manifest.Config) logger.Loggers {
	return logger.ProvideLoggers(cfg.Log.Dir)
}

func provideSystemLogger(l logger.Loggers) *zap.Logger { return l.System }

// provideServerOptions maps the manifest onto the options every script
// created server gets.
func provideServerOptions(cfg manifest.Config, l logger.Loggers) ([]server.Option, error) {
	read, write, idle := cfg.Timeouts()
	opts := []server.Option{
		server.WithLogger(l.System),
		server.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		server.WithTimeouts(read, write, idle),
		server.WithMetricsPath(cfg.HTTP.MetricsPath),
		server.WithRateLimit(ratelimit.Config{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}),
	}
	if cfg.HTTP.AccessLog {
		opts = append(opts, server.WithAccessLog(l.Access, cfg.HTTP.BodyLogPaths...))
	}
	if env := cfg.Auth.HMACSecretEnv; env != "" {
		secret := os.Getenv(env)
		if secret == "" {
			return nil, fmt.Errorf("auth: %s is not set", env)
		}
		opts = append(opts, server.WithAuth(auth.Config{
			Secret:   []byte(secret),
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			Leeway:   cfg.AuthLeeway(),
		}))
	}
	return opts, nil
}

func provideRuntime(cfg manifest.Config, log *zap.Logger, opts []server.Option) *script.Runtime {
	rtOpts := []script.Option{
		script.WithLogger(log),
		script.WithServerOptions(opts...),
		script.WithHandlerTimeout(cfg.HandlerTimeout()),
	}
	if cfg.Script.SharedRegistry {
		rtOpts = append(rtOpts, script.WithSharedRegistry())
	}
	return script.New(rtOpts...)
}

func registerHooks(lc fx.Lifecycle, cfg manifest.Config, rt *script.Runtime, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := rt.DoFile(cfg.Script.Path); err != nil {
				return fmt.Errorf("script %s: %w", cfg.Script.Path, err)
			}
			hs := rt.Handles()
			if len(hs) == 0 {
				log.Warn("script created no servers", zap.String("path", cfg.Script.Path))
			}
			for _, h := range hs {
				log.Info("serving",
					zap.String("addr", h.Addr()),
					zap.Strings("actions", h.Registry().Paths()),
				)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info("stopping")
			err := rt.Close()
			_ = log.Sync()
			return err
		},
	})
}
