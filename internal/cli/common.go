// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
	"github.com/botship/botship/internal/state"
)

// defaultUser is the stock Raspberry Pi OS account; overrides and the fleet
// database take precedence.
const defaultUser = "pi"

// osExit is swapped out in tests to observe exit codes.
var osExit = os.Exit

// addTargetFlags registers the connection override flags shared by every
// command that touches a robot. Flags beat the config file, which beats the
// fleet database.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "Target hostname or IP (bypasses the fleet database)")
	cmd.Flags().String("ip", "", "Alias for --host")
	cmd.Flags().String("user", "", "SSH username")
	cmd.Flags().Int("port", 0, "SSH port (default 22)")
	cmd.Flags().String("password", "", "SSH password (prompts when given an empty value)")
	cmd.Flags().String("key", "", "Path to an SSH private key file")
	cmd.Flags().String("path", "", "Remote base path on the target")
}

// flagOrConfig returns the flag value when set, otherwise the fallback.
func flagOrConfig(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}

// splitUserHost splits a user@host identifier into components.
func splitUserHost(s string) []string {
	if s == "" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}

// resolveTargets determines which robots a command operates on:
//
//  1. --host / --ip (or a configured target host) builds an ad-hoc target
//     without touching the fleet database.
//  2. An explicit user@host argument must exist in the fleet database.
//  3. Otherwise every active target in the fleet database is used.
func resolveTargets(cmd *cobra.Command, args []string) ([]model.Target, error) {
	host := flagOrConfig(cmd, "host", "")
	if host == "" {
		host, _ = cmd.Flags().GetString("ip")
	}
	user := flagOrConfig(cmd, "user", appConfig.Target.User)
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = appConfig.Target.Port
	}

	if host == "" && appConfig.Target.Host != "" && len(args) == 0 {
		host = appConfig.Target.Host
	}

	if host != "" {
		if user == "" {
			user = defaultUser
		}
		return []model.Target{{Username: user, Hostname: host, Port: port, IsActive: true}}, nil
	}

	if len(args) > 0 {
		parts := splitUserHost(args[0])
		if parts == nil {
			return nil, fmt.Errorf(i18n.T("target.error_invalid"), args[0])
		}
		t, err := db.GetTarget(parts[0], parts[1])
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf(i18n.T("deploy.cli_target_not_found"), args[0])
		}
		return []model.Target{*t}, nil
	}

	return db.GetAllActiveTargets()
}

// resolveAuth builds the SSH authentication material from flags and config.
// An empty --password value prompts on the terminal; the plaintext is held
// in the password cache and zeroed after the command finishes.
func resolveAuth(cmd *cobra.Command) (deploy.Auth, error) {
	auth := deploy.Auth{
		KeyFile: flagOrConfig(cmd, "key", appConfig.Target.KeyFile),
	}

	if cmd.Flags().Changed("password") {
		pass, _ := cmd.Flags().GetString("password")
		if pass == "" {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return auth, errors.New("refusing to prompt for a password without a terminal")
			}
			fmt.Printf(i18n.T("prompt.password"), flagOrConfig(cmd, "user", defaultUser))
			bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return auth, fmt.Errorf("could not read password: %w", err)
			}
			state.PasswordCache.Set(bytePassword)
			for i := range bytePassword {
				bytePassword[i] = 0
			}
		} else {
			state.PasswordCache.Set([]byte(pass))
		}
		auth.Password = state.PasswordCache.Get()
	}

	return auth, nil
}

// scrubAuth wipes the plaintext password once a command is done with it.
func scrubAuth(auth *deploy.Auth) {
	for i := range auth.Password {
		auth.Password[i] = 0
	}
	state.PasswordCache.Clear()
}

// remoteBasePath resolves the remote directory a command should use.
func remoteBasePath(cmd *cobra.Command, fallback string) string {
	if p := flagOrConfig(cmd, "path", appConfig.Target.Path); p != "" {
		return p
	}
	return fallback
}

// shellQuote wraps s in single quotes for safe interpolation into a remote
// shell command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
