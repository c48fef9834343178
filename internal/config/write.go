// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned by WriteDefault when the target exists and force is false.
var ErrExists = errors.New("config file already exists")

const defaultHeader = "# golive configuration. ENV (GOLIVE_*) overrides every value below.\n"

// WriteDefault atomically writes the default configuration to path.
func WriteDefault(path string, force bool) error {
	return WriteFile(path, Defaults(), force)
}

// WriteFile atomically writes cfg as YAML. Readers never observe a partial file.
func WriteFile(path string, cfg AppConfig, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// 0600: the file may carry the fallback stream key and API token.
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := pf.WriteString(defaultHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := pf.Write(body); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
