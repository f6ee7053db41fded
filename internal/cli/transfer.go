// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// backupCmd dumps the fleet database into a zstd-compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the fleet database",
	Long: `Dumps the entire fleet database (targets, pinned host keys, audit trail,
deployment history) into a single Zstandard-compressed JSON file.

If no output file is specified, a default 'botship-backup-YYYY-MM-DD.json.zst'
is used. The file can be restored into any supported database backend.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("botship-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		data, err := db.ExportBackup()
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("backup.error_write"), err))
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("backup.error_write"), err))
		}
		_ = logAction("BACKUP", fmt.Sprintf("file: %s", outputFile))
		fmt.Println(okStyle.Render(i18n.T("backup.success", outputFile)))
	},
}

// restoreCmd loads a backup file into the fleet database. The restore is
// non-destructive: existing rows are kept and upserted.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file.zst>",
	Short: "Restore the fleet database from a compressed JSON backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := readCompressedBackup(args[0])
		if err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("restore.error_read"), err))
		}
		if err := db.ImportBackup(data); err != nil {
			log.Fatalf("%s", fmt.Sprintf(i18n.T("restore.error_read"), err))
		}
		_ = logAction("RESTORE", fmt.Sprintf("file: %s", args[0]))
		fmt.Println(okStyle.Render(i18n.T("restore.success",
			len(data.Targets), len(data.KnownHosts), len(data.AuditLog), len(data.Deployments))))
	},
}

// readCompressedBackup handles reading and decoding a zstd-compressed JSON
// backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &backupData, nil
}

// writeCompressedBackup streams the JSON encoding directly to the zstd
// writer for memory efficiency.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return nil
}
