// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/golive/internal/api"
	"github.com/ManuGH/golive/internal/config"
)

// runToken issues a bearer token for the control API. The secret comes from
// --secret or GOLIVE_API_TOKEN.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("golive token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("subject", "operator", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime (0 = no expiry)")
	secret := fs.String("secret", "", "signing secret (defaults to $"+config.EnvAPIToken+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	key := strings.TrimSpace(*secret)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(config.EnvAPIToken))
	}
	if key == "" {
		_, _ = fmt.Fprintf(stderr, "Error: no signing secret (set --secret or %s)\n", config.EnvAPIToken)
		return 2
	}

	tok, err := api.IssueToken(key, *subject, *ttl)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, tok)
	return 0
}
