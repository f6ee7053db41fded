// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	cfg "github.com/botship/botship/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	tmp := t.TempDir()
	// Force the user config dir somewhere empty so no real config leaks in.
	t.Setenv("XDG_CONFIG_HOME", tmp)

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./botship.db",
		"language":      "en",
	}
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, defaults, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if c.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", c.Database.Type)
	}
	if c.Database.Dsn != "./botship.db" {
		t.Errorf("Database.Dsn = %q", c.Database.Dsn)
	}
	if c.Language != "en" {
		t.Errorf("Language = %q, want en", c.Language)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	file := filepath.Join(tmp, "custom.yaml")
	body := `
database:
  type: sqlite
  dsn: /var/lib/botship/fleet.db
language: de
target:
  host: 192.168.1.42
  user: pi
  path: /home/pi/robot
`
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, nil, &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if c.Database.Dsn != "/var/lib/botship/fleet.db" {
		t.Errorf("Database.Dsn = %q", c.Database.Dsn)
	}
	if c.Language != "de" {
		t.Errorf("Language = %q, want de", c.Language)
	}
	if c.Target.Host != "192.168.1.42" || c.Target.User != "pi" {
		t.Errorf("Target = %+v", c.Target)
	}
}

func TestWriteConfigFileCreatesFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	var c cfg.Config
	c.Database.Type = "sqlite"
	c.Database.Dsn = "./botship.db"
	c.Language = "en"

	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}

	written := filepath.Join(tmp, "botship", "botship.yaml")
	info, err := os.Stat(written)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", written, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	// Round-trip: the written file must load back with the same values.
	loaded, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, nil, nil)
	if err != nil {
		t.Fatalf("LoadConfig after write: %v", err)
	}
	if loaded.Database.Dsn != "./botship.db" {
		t.Errorf("round-trip Dsn = %q", loaded.Database.Dsn)
	}
}
