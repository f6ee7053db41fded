// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across Botship:
// deployment targets, transfer results, and audit records.
package model // import "github.com/botship/botship/internal/model"

import (
	"fmt"
	"time"
)

// Target represents a robot host we deploy to (e.g., pi@rover-01).
// This is the core entity the fleet database manages.
type Target struct {
	ID       int
	Username string
	Hostname string
	Port     int
	Label    string
	Tags     string
	IsActive bool
}

// String returns the user@host representation.
func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.Username, t.Hostname)
}

// Addr returns the dialable host:port address. A zero port means the
// SSH default.
func (t Target) Addr() string {
	if t.Port == 0 || t.Port == 22 {
		return t.Hostname
	}
	return fmt.Sprintf("%s:%d", t.Hostname, t.Port)
}

// FileStatus is the terminal state of a single file transfer within a
// deployment run.
type FileStatus string

const (
	// FileDeployed means the file was uploaded and moved into place.
	FileDeployed FileStatus = "deployed"

	// FileFailed means every transfer attempt was exhausted.
	FileFailed FileStatus = "failed"

	// FileSkipped means the file was not attempted (e.g., a failed
	// precondition aborted the run before this file).
	FileSkipped FileStatus = "skipped"
)

// FileResult records the outcome of one manifest entry on one target.
type FileResult struct {
	LocalPath  string
	RemotePath string
	Status     FileStatus
	Attempts   int
	Err        error
}

// DeployResult aggregates the per-file outcomes of a deployment run
// against a single target. A run with any failed file is itself failed,
// but later files are still attempted (there is no rollback).
type DeployResult struct {
	Target    Target
	StartedAt time.Time
	Duration  time.Duration
	Files     []FileResult
}

// Failed reports whether any file in the run exhausted its retries.
func (r DeployResult) Failed() bool {
	for _, f := range r.Files {
		if f.Status == FileFailed {
			return true
		}
	}
	return false
}

// Counts returns the number of deployed, failed, and skipped files.
func (r DeployResult) Counts() (deployed, failed, skipped int) {
	for _, f := range r.Files {
		switch f.Status {
		case FileDeployed:
			deployed++
		case FileFailed:
			failed++
		case FileSkipped:
			skipped++
		}
	}
	return deployed, failed, skipped
}

// AuditLogEntry is a single row in the audit trail.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// DeploymentRecord is a per-file history row, written for every manifest
// entry a deployment run attempted.
type DeploymentRecord struct {
	ID         int    `json:"id"`
	Timestamp  string `json:"timestamp"`
	Target     string `json:"target"`
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error"`
}

// KnownHost represents a trusted host's pinned public key.
type KnownHost struct {
	Hostname string `json:"hostname"`
	Key      string `json:"key"`
}
