package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-lua/pkg/manifest"
	"github.com/joeydtaylor/steeze-lua/pkg/script"
	"github.com/joeydtaylor/steeze-lua/pkg/server"
	"github.com/joeydtaylor/steeze-lua/pkg/serverfx"
)

func main() {
	_ = godotenv.Load(".env")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "steeze-lua",
		Short:        "Serve HTTP actions written in Lua",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve [script.lua]",
		Short: "Run a script and serve the actions it registers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, args)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "manifest file (TOML or YAML); defaults to $"+manifest.EnvManifest)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "steeze-lua", server.Version)
		},
	}
}

// loadConfig resolves the manifest: --config, then $STEEZE_LUA_MANIFEST, then
// defaults. A script argument wins over every other source.
func loadConfig(path string, args []string) (manifest.Config, error) {
	if path == "" {
		path = os.Getenv(manifest.EnvManifest)
	}

	cfg := manifest.Default()
	if path != "" {
		c, err := manifest.Read(path)
		if err != nil {
			return manifest.Config{}, err
		}
		cfg = c
	} else {
		manifest.ApplyEnv(&cfg)
	}

	if len(args) == 1 {
		cfg.Script.Path = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return manifest.Config{}, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg manifest.Config) error {
	var rt *script.Runtime
	app := fx.New(serverfx.Module(cfg), fx.Populate(&rt))

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	_ = rt.Run(runCtx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	return app.Stop(stopCtx)
}
