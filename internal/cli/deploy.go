// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/manifest"
	"github.com/botship/botship/internal/model"
)

// deployCmd pushes the manifest's files to one or all targets and runs the
// post-deploy commands.
var deployCmd = &cobra.Command{
	Use:   "deploy [user@host]",
	Short: "Deploy the manifest's files to one or all robots",
	Long: `Reads the deployment manifest and pushes every listed file to the
target(s) over SFTP. Each file is attempted a fixed number of times with a
fixed delay between tries; a file that exhausts its attempts is reported
failed and the run continues with the next file. Post-deploy commands run
after the transfer pass and never fail the deployment.

If a target (user@host) is specified, deploys only to that robot. With
--host/--ip the fleet database is bypassed entirely. Otherwise deploys to
every active target in the fleet database.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manifestPath, _ := cmd.Flags().GetString("manifest")
		if manifestPath == "" {
			manifestPath = appConfig.Manifest
		}
		if manifestPath == "" {
			manifestPath = "deploy.yaml"
		}

		// Validation happens before any connection is opened; a missing
		// local file aborts with no remote mutation.
		m, err := manifest.Load(manifestPath)
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("deploy.error_manifest"), err))
		}

		if retries, _ := cmd.Flags().GetInt("retries"); retries > 0 {
			m.Retries = retries
		}
		if delay, _ := cmd.Flags().GetInt("delay"); cmd.Flags().Changed("delay") {
			m.RetryDelay = delay
		}
		if base := remoteBasePath(cmd, ""); base != "" {
			m.RemoteBase = base
		}

		targets, err := resolveTargets(cmd, args)
		if err != nil {
			log.Fatalf("%v", err)
		}
		auth, err := resolveAuth(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer scrubAuth(&auth)

		deployTask := parallelTask{
			name:       "deployment",
			startMsg:   i18n.T("parallel_task.start_message", "deployment", len(targets)),
			successMsg: i18n.T("parallel_task.deploy_success_message"),
			failMsg:    i18n.T("parallel_task.deploy_fail_message"),
			successLog: "CLI_DEPLOY_SUCCESS",
			failLog:    "CLI_DEPLOY_FAIL",
			taskFunc: func(t model.Target) error {
				result, err := deploy.RunDeployment(t, m, auth)
				if err != nil {
					return err
				}
				if result.Failed() {
					deployed, failed, _ := result.Counts()
					return fmt.Errorf("%d of %d file(s) failed", failed, deployed+failed)
				}
				return nil
			},
		}

		if failed := runParallelTasks(targets, deployTask); failed > 0 {
			osExit(1)
		}
	},
}

func init() {
	deployCmd.Flags().StringP("manifest", "m", "", "Deployment manifest (default deploy.yaml)")
	deployCmd.Flags().Int("retries", 0, "Override the manifest's per-file transfer attempts")
	deployCmd.Flags().Int("delay", 0, "Override the manifest's delay between attempts (seconds)")
	addTargetFlags(deployCmd)
}
