// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import "github.com/botship/botship/internal/db"

// logAction writes an audit entry using a default AuditWriter when available.
// This avoids calling db.LogAction directly from command code.
func logAction(action, details string) error {
	if w := db.DefaultAuditWriter(); w != nil {
		return w.LogAction(action, details)
	}
	return nil
}
