// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads the Botship configuration from its YAML file,
// environment variables, and CLI flags via viper, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the application configuration persisted in botship.yaml.
type Config struct {
	Database struct {
		// Type selects the fleet database backend: "sqlite" (default),
		// "postgres", or "mysql".
		Type string `mapstructure:"type" yaml:"type"`

		// Dsn is the connection string; for SQLite, the database file path.
		Dsn string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`

	// Language selects the message locale ("en", "de").
	Language string `mapstructure:"language" yaml:"language"`

	// Manifest is the default deployment manifest path.
	Manifest string `mapstructure:"manifest" yaml:"manifest"`

	// Target holds the ad-hoc deployment target used when no fleet
	// target is named and no database entry is wanted. CLI flags
	// (--host/--user/...) override these values.
	Target struct {
		Host    string `mapstructure:"host" yaml:"host"`
		User    string `mapstructure:"user" yaml:"user"`
		Port    int    `mapstructure:"port" yaml:"port"`
		KeyFile string `mapstructure:"key_file" yaml:"key_file"`
		Path    string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"target" yaml:"target"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Botship")
		default: // Linux, macOS, etc.
			configDir = "/etc/botship"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "botship")
	}

	return filepath.Join(configDir, "botship.yaml"), nil
}

// LoadConfig builds the configuration from defaults, the config file, the
// environment (BOTSHIP_ prefix), and bound CLI flags, then unmarshals it
// into T. An explicit config file path takes precedence over the search
// paths.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitConfigFile *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("botship")
	v.SetConfigType("yaml")

	// 3. Add explicit config file path if provided via --config flag.
	if explicitConfigFile != nil {
		v.SetConfigFile(*explicitConfigFile)
	}

	// 4. Add standard config locations
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for botship.yaml in current dir

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 6. For backward compatibility, check for and merge `.botship.yaml`
	// in the current directory.
	mergeLegacyConfig(v)

	// 7. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("botship")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 8. Bind CLI flags; they override everything above.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// mergeLegacyConfig checks for a `.botship.yaml` file in the current
// directory and merges it into the viper configuration if found.
func mergeLegacyConfig(v *viper.Viper) {
	legacyConfigFile := ".botship.yaml"
	if _, err := os.Stat(legacyConfigFile); err == nil {
		v.SetConfigFile(legacyConfigFile)
		// MergeInConfig errors on a malformed file; the compatibility
		// layer must not break startup, so the error is dropped.
		_ = v.MergeInConfig()
		v.SetConfigFile("")
	}
}

// EnsureDefaultConfig writes the configuration to the user config path on
// first run. It is a no-op when a config file already exists there or in
// the current directory.
func EnsureDefaultConfig[T any](c *T) error {
	path, err := getConfigPath(false)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if _, err := os.Stat("botship.yaml"); err == nil {
		return nil
	}
	if _, err := os.Stat(".botship.yaml"); err == nil {
		return nil
	}
	return WriteConfigFile(c, false)
}

// WriteConfigFile persists the configuration to the user (or system)
// config path, creating the directory if needed.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 because the config may carry connection credentials.
	err = os.WriteFile(path, data, 0600)
	if err != nil {
		return err
	}

	return nil
}
