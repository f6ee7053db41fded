// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all data exported by the backup command.
// It holds slices of every table the fleet database persists.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	Targets     []BackupTarget     `json:"targets"`
	KnownHosts  []KnownHost        `json:"known_hosts"`
	AuditLog    []AuditLogEntry    `json:"audit_log"`
	Deployments []DeploymentRecord `json:"deployments"`
}

// BackupTarget mirrors Target with JSON tags for the backup format.
type BackupTarget struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	Label    string `json:"label"`
	Tags     string `json:"tags"`
	IsActive bool   `json:"is_active"`
}
