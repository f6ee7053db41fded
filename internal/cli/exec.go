// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// execCmd runs a shell command on one or all targets.
var execCmd = &cobra.Command{
	Use:   "exec [user@host] -- <command...>",
	Short: "Run a command on one or all robots",
	Long: `Opens an SSH session on the target(s) and runs the given command,
printing its combined output. The exit code is 0 only when the command
succeeded on every target.

Example:
  botship exec -- sudo systemctl restart robot
  botship exec pi@pi-01.local -- cat /opt/robot/version`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// A user@host-shaped first argument selects the target and the
		// rest is the command; cobra strips the `--` separator for us.
		var targetArgs []string
		commandArgs := args
		if splitUserHost(args[0]) != nil {
			if len(args) == 1 {
				fmt.Fprintln(os.Stderr, failStyle.Render(i18n.T("exec.error_missing_command", args[0])))
				_ = cmd.Usage()
				osExit(1)
				return
			}
			targetArgs = args[:1]
			commandArgs = args[1:]
		}
		command := strings.Join(commandArgs, " ")

		targets, err := resolveTargets(cmd, targetArgs)
		if err != nil {
			log.Fatalf("%v", err)
		}
		auth, err := resolveAuth(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer scrubAuth(&auth)

		var mu sync.Mutex
		outputs := make(map[string]string, len(targets))

		execTask := parallelTask{
			name:       "exec",
			startMsg:   i18n.T("parallel_task.start_message", "exec", len(targets)),
			successMsg: i18n.T("parallel_task.exec_success_message"),
			failMsg:    i18n.T("parallel_task.exec_fail_message"),
			successLog: "CLI_EXEC_SUCCESS",
			failLog:    "CLI_EXEC_FAIL",
			taskFunc: func(t model.Target) error {
				out, err := deploy.RunCommand(t, auth, command)
				mu.Lock()
				outputs[t.String()] = out
				mu.Unlock()
				return err
			},
		}

		failed := runParallelTasks(targets, execTask)

		for target, out := range outputs {
			if out = strings.TrimRight(out, "\n"); out != "" {
				fmt.Println(dimStyle.Render("--- " + target + " ---"))
				fmt.Println(out)
			}
		}

		if failed > 0 {
			osExit(1)
		}
	},
}

func init() {
	addTargetFlags(execCmd)
}
