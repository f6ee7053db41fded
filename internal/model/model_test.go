// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"errors"
	"testing"
)

func TestTargetString(t *testing.T) {
	tgt := Target{Username: "pi", Hostname: "rover-01"}
	if got := tgt.String(); got != "pi@rover-01" {
		t.Errorf("Target.String() = %q, want %q", got, "pi@rover-01")
	}
}

func TestTargetAddr(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{"zero port", Target{Hostname: "rover-01"}, "rover-01"},
		{"default port", Target{Hostname: "rover-01", Port: 22}, "rover-01"},
		{"custom port", Target{Hostname: "rover-01", Port: 2222}, "rover-01:2222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeployResultFailed(t *testing.T) {
	r := DeployResult{Files: []FileResult{
		{LocalPath: "a", Status: FileDeployed},
		{LocalPath: "b", Status: FileDeployed},
	}}
	if r.Failed() {
		t.Error("expected run with only deployed files not to be failed")
	}

	r.Files = append(r.Files, FileResult{LocalPath: "c", Status: FileFailed, Err: errors.New("boom")})
	if !r.Failed() {
		t.Error("expected run with a failed file to be failed")
	}
}

func TestDeployResultCounts(t *testing.T) {
	r := DeployResult{Files: []FileResult{
		{Status: FileDeployed},
		{Status: FileDeployed},
		{Status: FileFailed},
		{Status: FileSkipped},
	}}
	deployed, failed, skipped := r.Counts()
	if deployed != 2 || failed != 1 || skipped != 1 {
		t.Errorf("Counts() = (%d, %d, %d), want (2, 1, 1)", deployed, failed, skipped)
	}
}
