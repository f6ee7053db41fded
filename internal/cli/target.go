// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// targetCmd groups the fleet database management subcommands.
var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage the robots in the fleet database",
}

var targetAddCmd = &cobra.Command{
	Use:   "add <user@host>",
	Short: "Add a robot to the fleet database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parts := splitUserHost(args[0])
		if parts == nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("target.error_invalid"), args[0]))
		}

		existing, err := db.GetTarget(parts[0], parts[1])
		if err != nil {
			log.Fatalf("%v", err)
		}
		if existing != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("target.error_exists"), args[0]))
		}

		port, _ := cmd.Flags().GetInt("port")
		label, _ := cmd.Flags().GetString("label")
		tags, _ := cmd.Flags().GetString("tags")

		t := model.Target{
			Username: parts[0],
			Hostname: parts[1],
			Port:     port,
			Label:    label,
			Tags:     tags,
			IsActive: true,
		}
		if _, err := db.AddTarget(t); err != nil {
			log.Fatalf("%v", err)
		}
		_ = logAction("TARGET_ADD", fmt.Sprintf("target: %s", t.String()))
		fmt.Println(okStyle.Render(i18n.T("target.added", t.String())))
	},
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the robots in the fleet database",
	Run: func(cmd *cobra.Command, args []string) {
		targets, err := db.GetAllTargets()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(targets) == 0 {
			fmt.Println(i18n.T("target.none"))
			return
		}
		for _, t := range targets {
			line := t.String()
			if t.Port != 0 && t.Port != 22 {
				line += fmt.Sprintf(":%d", t.Port)
			}
			if t.Label != "" {
				line += "  " + dimStyle.Render(t.Label)
			}
			if t.Tags != "" {
				line += "  " + dimStyle.Render("["+t.Tags+"]")
			}
			if !t.IsActive {
				line += "  " + failStyle.Render("(inactive)")
			}
			fmt.Println(line)
		}
	},
}

var targetRemoveCmd = &cobra.Command{
	Use:     "remove <user@host>",
	Aliases: []string{"rm"},
	Short:   "Remove a robot from the fleet database",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parts := splitUserHost(args[0])
		if parts == nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("target.error_invalid"), args[0]))
		}
		if err := db.DeleteTarget(parts[0], parts[1]); err != nil {
			if strings.Contains(err.Error(), "no rows") {
				log.Fatalf("%s", fmt.Sprintf(i18n.T("target.error_not_found"), args[0]))
			}
			log.Fatalf("%v", err)
		}
		_ = logAction("TARGET_REMOVE", fmt.Sprintf("target: %s", args[0]))
		fmt.Println(i18n.T("target.removed", args[0]))
	},
}

func init() {
	targetAddCmd.Flags().Int("port", 0, "SSH port (default 22)")
	targetAddCmd.Flags().String("label", "", "Optional label (e.g., 'living room robot')")
	targetAddCmd.Flags().String("tags", "", "Optional comma-separated tags")
	targetCmd.AddCommand(targetAddCmd)
	targetCmd.AddCommand(targetListCmd)
	targetCmd.AddCommand(targetRemoveCmd)
}
