package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // timestamps use a named zone; minimal images lack zoneinfo

	"github.com/spf13/cobra"

	"github.com/vovakirdan/partyline/internal/app"
	"github.com/vovakirdan/partyline/internal/config"
	applog "github.com/vovakirdan/partyline/internal/log"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type serveFlags struct {
	configPath string
	addr       string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	root := &cobra.Command{
		Use:           "partyline",
		Short:         "Single-channel group chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}
	bindServeFlags(root, flags)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}
	bindServeFlags(serveCmd, flags)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)
	return root
}

func bindServeFlags(cmd *cobra.Command, flags *serveFlags) {
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to config.yaml (created with defaults if missing)")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address, overrides config")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func serve(ctx context.Context, flags *serveFlags) error {
	bootLogger := applog.New("info", applog.FormatConsole)

	cfg, path, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{Addr: flags.addr, LogLevel: flags.logLevel})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Str("version", version).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting partyline server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
