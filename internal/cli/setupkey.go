// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"path"
	"path/filepath"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/keys"
	"github.com/botship/botship/internal/model"
	"github.com/botship/botship/internal/security"
)

// setupKeyCmd writes the object finder's API credential file and optionally
// installs it on the robots.
var setupKeyCmd = &cobra.Command{
	Use:   "setup-key [api-key]",
	Short: "Write the object finder's API key file",
	Long: `Writes keys.env (OPENAI_API_KEY=...) with owner-only permissions and,
unless --local-only is given, installs it next to the robot code on the
target(s).

The key is taken from the argument, or from the system clipboard with
--from-clipboard so it never lands in the shell history.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fromClipboard, _ := cmd.Flags().GetBool("from-clipboard")
		localOnly, _ := cmd.Flags().GetBool("local-only")
		outFile, _ := cmd.Flags().GetString("out")

		var apiKey security.Secret
		switch {
		case fromClipboard:
			var err error
			apiKey, err = keys.FromClipboard()
			if err != nil {
				log.Fatalf("%v", err)
			}
		case len(args) == 1:
			apiKey = security.FromString(args[0])
		default:
			log.Fatalf("%s", i18n.T("setup_key.error_empty"))
		}
		defer apiKey.Zero()

		if outFile == "" {
			outFile = keys.DefaultFileName
		}
		if err := keys.WriteLocal(outFile, apiKey); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(okStyle.Render(i18n.T("setup_key.saved", outFile)))
		_ = logAction("SETUP_KEY", fmt.Sprintf("wrote %s", outFile))

		if localOnly {
			fmt.Println(i18n.T("setup_key.reminder"))
			return
		}

		targets, err := resolveTargets(cmd, nil)
		if err != nil {
			log.Fatalf("%v", err)
		}
		auth, err := resolveAuth(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer scrubAuth(&auth)

		remote := path.Join(remoteBasePath(cmd, defaultFinderPath), keys.DefaultFileName)
		local, err := filepath.Abs(outFile)
		if err != nil {
			log.Fatalf("%v", err)
		}

		installTask := parallelTask{
			name:       "key install",
			startMsg:   i18n.T("parallel_task.start_message", "key install", len(targets)),
			successMsg: i18n.T("setup_key.installed"),
			failMsg:    i18n.T("setup_key.error_install"),
			successLog: "CLI_SETUP_KEY_SUCCESS",
			failLog:    "CLI_SETUP_KEY_FAIL",
			taskFunc: func(t model.Target) error {
				deployer, err := deploy.NewDeployerFunc(t, auth)
				if err != nil {
					return err
				}
				defer deployer.Close()
				return deployer.PushFile(local, remote, keys.FileMode)
			},
		}

		if failed := runParallelTasks(targets, installTask); failed > 0 {
			osExit(1)
			return
		}
		fmt.Println(i18n.T("setup_key.reminder"))
	},
}

func init() {
	setupKeyCmd.Flags().Bool("from-clipboard", false, "Read the API key from the system clipboard")
	setupKeyCmd.Flags().Bool("local-only", false, "Only write the local key file, do not install it")
	setupKeyCmd.Flags().StringP("out", "o", "", "Local key file path (default keys.env)")
	addTargetFlags(setupKeyCmd)
}
