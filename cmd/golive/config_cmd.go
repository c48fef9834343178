// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/golive/internal/config"
	"github.com/ManuGH/golive/internal/log"
	"github.com/ManuGH/golive/internal/version"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:], stdout, stderr)
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  golive config init [--file|-f config.yaml] [--force]")
	_, _ = fmt.Fprintln(w, "  golive config validate [--file|-f config.yaml]")
	_, _ = fmt.Fprintln(w, "  golive config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func fileFlag(fs *flag.FlagSet, def string) *string {
	var file string
	fs.StringVar(&file, "file", def, "path to YAML configuration file")
	fs.StringVar(&file, "f", def, "path to YAML configuration file (shorthand)")
	return &file
}

func runConfigInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("golive config init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs, "config.yaml")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := config.WriteDefault(*file, *force); err != nil {
		if errors.Is(err, config.ErrExists) {
			_, _ = fmt.Fprintf(stderr, "Error: %s already exists (use --force to overwrite)\n", *file)
			return 1
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "✓ wrote %s\n", *file)
	return 0
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("golive config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs, "")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := strings.TrimSpace(*file)
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("golive config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs, "")
	format := fs.String("format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(strings.TrimSpace(*file), version.Version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}
	redact(&cfg)

	switch strings.ToLower(*format) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		err = enc.Encode(cfg)
		if err == nil {
			err = enc.Close()
		}
	default:
		_, _ = fmt.Fprintf(stderr, "Error: unsupported format %q\n", *format)
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// redact masks secrets in the effective config before printing.
func redact(cfg *config.AppConfig) {
	if cfg.Stream.FallbackKey != "" {
		cfg.Stream.FallbackKey = log.MaskKey(cfg.Stream.FallbackKey)
	}
	if cfg.Server.APIToken != "" {
		cfg.Server.APIToken = "***"
	}
}
