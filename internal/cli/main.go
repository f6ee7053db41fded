// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Botship using the Cobra
// library. It defines the root command, subcommands (deploy, exec, search,
// setup-key, target, ...), flags, and the entry point for execution.

package cli

import (
	"errors"
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql" // Blank import for non-sqlite backends
	_ "github.com/jackc/pgx/v5/stdlib" // Blank import for non-sqlite backends
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/config"
	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/logging"
	"github.com/botship/botship/internal/tui"
)

var version = "dev" // this will be set by the linker

var cfgFile string
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// setupDefaultServices loads the configuration, initializes i18n, and opens
// the fleet database. Every subcommand runs it through PersistentPreRunE.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./botship.db",
		"language":      "en",
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Guard against empty values in a user-edited config file.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
	}

	// The persistent flags don't share names with the config keys, so they
	// are applied by hand rather than through viper's flag binding.
	if f := cmd.Flags().Lookup("db-type"); f != nil && f.Changed {
		appConfig.Database.Type = f.Value.String()
	}
	if f := cmd.Flags().Lookup("db-dsn"); f != nil && f.Changed {
		appConfig.Database.Dsn = f.Value.String()
	}
	if f := cmd.Flags().Lookup("lang"); f != nil && f.Changed {
		appConfig.Language = f.Value.String()
	}

	// First run: persist a default config so later runs have a file to
	// inspect. Failure is not fatal; the app runs on in-memory defaults.
	if optionalConfigPath == nil {
		if writeErr := config.EnsureDefaultConfig(&appConfig); writeErr != nil {
			log.Warnf("could not write default config file: %v", writeErr)
		}
	}

	i18n.Init(appConfig.Language)

	// Tests may have installed a store already.
	if !db.IsInitialized() {
		if err := db.InitDB(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// getConfigPathFromCli returns the --config flag value when the user set it
// explicitly, verifying the file exists.
func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// NewRootCmd creates and configures a new root cobra command. This function
// is used for the main application command as well as fresh instances for
// isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "botship",
		Short: "Botship deploys and operates a fleet of Raspberry Pi robots.",
		Long: `Botship pushes robot code to Raspberry Pi targets over SSH, runs
remote commands, launches object searches with validated parameters, and
keeps a deployment history. Targets, pinned host keys, and the audit trail
live in a database.

Running without a subcommand will launch the fleet dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Println(version)
				os.Exit(0)
			}
			if verbose {
				logging.SetDebug(true)
			}
			return setupDefaultServices(cmd, args)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// Config, i18n, and the database are ready; just run the dashboard.
			tui.Run()
		},
	}

	cmd.Version = version

	cmd.AddCommand(deployCmd)
	cmd.AddCommand(execCmd)
	cmd.AddCommand(searchCmd)
	cmd.AddCommand(setupKeyCmd)
	cmd.AddCommand(targetCmd)
	cmd.AddCommand(trustHostCmd)
	cmd.AddCommand(historyCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(restoreCmd)

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (e.g., sqlite, postgres)")
	cmd.PersistentFlags().String("db-dsn", "./botship.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `CLI language ("en", "de")`)

	return cmd
}

// Execute runs the CLI entrypoint. The root main package calls this and
// handles process exit.
func Execute() error {
	return NewRootCmd().Execute()
}
