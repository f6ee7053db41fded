// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/validate"
)

// finderScript is the object finder entry point deployed alongside the
// robot code.
const finderScript = "standalone_object_finder.py"

// defaultFinderPath is where deployments place the robot code when the
// config does not say otherwise.
const defaultFinderPath = "/opt/robot"

// searchCmd launches the object finder on a robot with validated
// parameters. All validation happens locally; bad input exits 1 with a
// usage message and no connection is opened.
var searchCmd = &cobra.Command{
	Use:   "search <object> [user@host]",
	Short: "Launch an object search on a robot",
	Long: `Starts the on-robot object finder for the named object.

--timeout must be a positive integer (seconds) and --confidence a number in
[0.0, 1.0]; anything else exits with an error before any remote action.

Example:
  botship search backpack --timeout 120 --confidence 0.7`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		object, err := validate.ObjectName(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, failStyle.Render(err.Error()))
			_ = cmd.Usage()
			osExit(1)
			return
		}
		timeoutRaw, _ := cmd.Flags().GetString("timeout")
		timeout, err := validate.ParseTimeout(timeoutRaw)
		if err != nil {
			fmt.Fprintln(os.Stderr, failStyle.Render(err.Error()))
			_ = cmd.Usage()
			osExit(1)
			return
		}
		confidenceRaw, _ := cmd.Flags().GetString("confidence")
		confidence, err := validate.ParseConfidence(confidenceRaw)
		if err != nil {
			fmt.Fprintln(os.Stderr, failStyle.Render(err.Error()))
			_ = cmd.Usage()
			osExit(1)
			return
		}

		targets, err := resolveTargets(cmd, args[1:])
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(targets) != 1 {
			log.Fatalf("%s", i18n.T("search.error_single_target"))
		}
		target := targets[0]

		auth, err := resolveAuth(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer scrubAuth(&auth)

		base := remoteBasePath(cmd, defaultFinderPath)
		command := fmt.Sprintf("cd %s && python3 %s --object %s --timeout %d --confidence %g",
			shellQuote(base), finderScript, shellQuote(object), timeout, confidence)

		fmt.Println(i18n.T("search.launch", object, target.String(), timeout, confidence))
		out, err := deploy.RunCommand(target, auth, command)
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("search.error_launch_failed"), target.String(), err))
		}
		if out != "" {
			fmt.Print(out)
		}
		fmt.Println(okStyle.Render(i18n.T("search.started", target.String())))
	},
}

func init() {
	// Timeout and confidence are taken as strings so malformed values
	// produce the usage message instead of a flag parse error.
	searchCmd.Flags().String("timeout", "60", "Search timeout, a positive integer (seconds)")
	searchCmd.Flags().String("confidence", "0.5", "Detection confidence threshold in [0.0, 1.0]")
	addTargetFlags(searchCmd)
}
