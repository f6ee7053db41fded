// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// historyCmd prints the most recent deployment rows, newest first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the deployment history",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		auditFlag, _ := cmd.Flags().GetBool("audit")

		if auditFlag {
			entries, err := db.GetAuditLog(limit)
			if err != nil {
				log.Fatalf("%s", fmt.Sprintf(i18n.T("history.error_fetch"), err))
			}
			if len(entries) == 0 {
				fmt.Println(i18n.T("history.empty"))
				return
			}
			for _, e := range entries {
				fmt.Printf("%s  %-22s %s\n", dimStyle.Render(e.Timestamp), e.Action, e.Details)
			}
			return
		}

		rows, err := db.GetDeployments(limit)
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("history.error_fetch"), err))
		}
		if len(rows) == 0 {
			fmt.Println(i18n.T("history.empty"))
			return
		}
		for _, r := range rows {
			status := okStyle.Render(r.Status)
			if r.Status != string(model.FileDeployed) {
				status = failStyle.Render(r.Status)
			}
			line := fmt.Sprintf("%s  %-20s %s → %s  %s (%d attempt(s))",
				dimStyle.Render(r.Timestamp), r.Target, r.LocalPath, r.RemotePath, status, r.Attempts)
			if r.Error != "" {
				line += "  " + dimStyle.Render(r.Error)
			}
			fmt.Println(line)
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum rows to show (0 for all)")
	historyCmd.Flags().Bool("audit", false, "Show the audit trail instead of file history")
}
