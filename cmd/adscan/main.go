// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command adscan detects ad breaks in recorded HLS streams by watching for
// the broadcaster logo to disappear.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/detector"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/version"
)

// app holds what the commands write to and how they decode frames. Tests
// replace both.
type app struct {
	stdout io.Writer
	stderr io.Writer
	// sources builds the frame source factory for a run.
	sources func(cfg config.FramesConfig, logger zerolog.Logger) detector.SourceFactory

	configPath string
	logLevel   string
	quiet      bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, sources: frameSources}
}

// frameSources opens the configured decoder for each media locator. All
// sources of one process share the open limiter.
func frameSources(cfg config.FramesConfig, logger zerolog.Logger) detector.SourceFactory {
	limiter := frames.NewOpenLimiter(cfg.OpenRate, cfg.OpenBurst)
	return func(locator string) (frames.Source, error) {
		return frames.New(locator, frames.Options{
			Backend:   cfg.Backend,
			FFmpegBin: cfg.FFmpegBin,
			Timeout:   cfg.FrameTimeout,
			Limiter:   limiter,
			Logger:    logger,
		})
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := newApp(os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome onto an exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return faults.ExitOK
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(a.stderr, "adscan: interrupted")
		return faults.ExitGeneric
	}
	fmt.Fprintf(a.stderr, "adscan: error: %v\n", err)
	return faults.ExitCode(err)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adscan",
		Short:         "Detect ad windows in recorded HLS streams",
		Long:          "adscan samples frames of an HLS recording, learns the broadcaster logo and reports the windows where it is missing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to YAML configuration file (env ADSCAN_CONFIG)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(a.detectCmd(), a.serveCmd(), a.configCmd(), a.versionCmd())
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
}

// resolveConfigPath prefers --config over ADSCAN_CONFIG.
func (a *app) resolveConfigPath() string {
	if p := strings.TrimSpace(a.configPath); p != "" {
		return p
	}
	return strings.TrimSpace(config.ParseString("ADSCAN_CONFIG", ""))
}

// loadConfig runs the layered loader with the command's flag overrides and
// configures logging from the result.
func (a *app) loadConfig(overrides ...func(*config.AppConfig)) (config.AppConfig, *config.Loader, error) {
	path := a.resolveConfigPath()
	loader := config.NewLoader(path, version.Version)
	for _, fn := range overrides {
		loader.Override(fn)
	}
	if a.logLevel != "" {
		level := a.logLevel
		loader.Override(func(c *config.AppConfig) { c.LogLevel = level })
	}

	// Safe defaults until the file is read so config errors are logged.
	xglog.Configure(xglog.Config{Level: "info", Output: a.stderr, Service: "adscan", Version: version.Version})

	cfg, err := loader.Load()
	if err != nil {
		if !errors.Is(err, faults.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
		}
		return cfg, nil, err
	}

	level := cfg.LogLevel
	if a.quiet {
		level = zerolog.WarnLevel.String()
	}
	xglog.Configure(xglog.Config{
		Level:   level,
		Output:  a.stderr,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	if path != "" {
		logger := xglog.WithComponent("config")
		logger.Debug().
			Str(xglog.FieldEvent, "config.loaded").
			Str(xglog.FieldConfigPath, path).
			Msg("loaded configuration from file")
	}
	return cfg, loader, nil
}
