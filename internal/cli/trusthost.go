// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/deploy"
	"github.com/botship/botship/internal/i18n"
)

// trustHostCmd fetches a robot's host key, shows its fingerprint, and pins
// it in the database after confirmation. Deployments refuse to connect to
// hosts that have not been trusted this way.
var trustHostCmd = &cobra.Command{
	Use:   "trust-host <user@host>",
	Short: "Pin a robot's SSH host key",
	Long: `Connects to a host for the first time, retrieves its public key, and
prompts to save it to the database. This is a required step before Botship
will deploy to a new robot.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := args[0]
		hostname := target
		if parts := splitUserHost(target); parts != nil {
			hostname = parts[1]
		}

		fmt.Println(i18n.T("trust_host.fetching", hostname))
		key, err := deploy.GetRemoteHostKey(hostname)
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("trust_host.error_fetch"), hostname, err))
		}

		fingerprint := ssh.FingerprintSHA256(key)
		fmt.Printf("\n%s key fingerprint: %s\n", key.Type(), fingerprint)

		answer := promptForConfirmation("Trust this host and pin its key? (yes/no): ")
		if answer != "yes" {
			osExit(1)
			return
		}

		keyStr := string(ssh.MarshalAuthorizedKey(key))
		if err := db.SetKnownHostKey(hostname, keyStr); err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("trust_host.error_store"), err))
		}
		_ = logAction("TRUST_HOST", fmt.Sprintf("host: %s, fingerprint: %s", hostname, fingerprint))
		fmt.Println(okStyle.Render(i18n.T("trust_host.success", hostname, key.Type())))
	},
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}
