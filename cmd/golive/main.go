// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command golive runs the live-stream session controller and its control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/golive/internal/config"
	xglog "github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return runServe(args, stderr)
	case "config":
		return runConfigCLI(args, stdout, stderr)
	case "token":
		return runToken(args, stdout, stderr)
	case "version":
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  golive [serve] [--config config.yaml] [--env-file .env]")
	_, _ = fmt.Fprintln(w, "  golive config init|validate|dump [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  golive token --subject NAME [--ttl 24h]")
	_, _ = fmt.Fprintln(w, "  golive version")
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("golive serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before configuration")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "golive",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	if err := config.LoadDotEnv(*envFile); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "config.dotenv_failed").Msg("failed to load env file")
		return 1
	}

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOLIVE_CONFIG"))
	}
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
		return 1
	}
	xglog.SetLevel(cfg.LogLevel)

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, loader); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("golive exited with error")
		return 1
	}
	logger.Info().Msg("golive exiting")
	return 0
}
