// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"path/filepath"
	"testing"

	"github.com/botship/botship/internal/model"
)

// newTestStore opens a fresh SQLite store in a temp dir and installs it as
// the package-level store.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "botship-test.db")
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	prev := store
	SetStore(s)
	t.Cleanup(func() { SetStore(prev) })
	return s
}

func TestTargetRoundTrip(t *testing.T) {
	newTestStore(t)

	id, err := AddTarget(model.Target{Username: "pi", Hostname: "rover-01", Label: "living room"})
	if err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero target ID")
	}

	got, err := GetTarget("pi", "rover-01")
	if err != nil {
		t.Fatalf("GetTarget: %v", err)
	}
	if got == nil {
		t.Fatal("expected target, got nil")
	}
	if got.Port != 22 {
		t.Errorf("default port = %d, want 22", got.Port)
	}
	if !got.IsActive {
		t.Error("new targets should be active")
	}
	if got.Label != "living room" {
		t.Errorf("Label = %q", got.Label)
	}

	missing, err := GetTarget("pi", "nope")
	if err != nil {
		t.Fatalf("GetTarget missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown target, got %+v", missing)
	}
}

func TestDeleteTarget(t *testing.T) {
	newTestStore(t)

	if _, err := AddTarget(model.Target{Username: "pi", Hostname: "rover-01"}); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := DeleteTarget("pi", "rover-01"); err != nil {
		t.Fatalf("DeleteTarget: %v", err)
	}
	if err := DeleteTarget("pi", "rover-01"); err == nil {
		t.Error("expected error deleting a target twice")
	}
}

func TestActiveTargetFiltering(t *testing.T) {
	s := newTestStore(t)

	if _, err := AddTarget(model.Target{Username: "pi", Hostname: "rover-01"}); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if _, err := AddTarget(model.Target{Username: "pi", Hostname: "rover-02"}); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}

	all, err := s.GetAllTargets()
	if err != nil {
		t.Fatalf("GetAllTargets: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	active, err := s.GetAllActiveTargets()
	if err != nil {
		t.Fatalf("GetAllActiveTargets: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
}

func TestKnownHostKeyPinning(t *testing.T) {
	newTestStore(t)

	key, err := GetKnownHostKey("rover-01")
	if err != nil {
		t.Fatalf("GetKnownHostKey: %v", err)
	}
	if key != "" {
		t.Errorf("expected empty key for unknown host, got %q", key)
	}

	if err := SetKnownHostKey("rover-01", "ssh-ed25519 AAAA1"); err != nil {
		t.Fatalf("SetKnownHostKey: %v", err)
	}
	key, err = GetKnownHostKey("rover-01")
	if err != nil {
		t.Fatalf("GetKnownHostKey: %v", err)
	}
	if key != "ssh-ed25519 AAAA1" {
		t.Errorf("key = %q", key)
	}

	// Re-pinning replaces the key.
	if err := SetKnownHostKey("rover-01", "ssh-ed25519 AAAA2"); err != nil {
		t.Fatalf("SetKnownHostKey replace: %v", err)
	}
	key, _ = GetKnownHostKey("rover-01")
	if key != "ssh-ed25519 AAAA2" {
		t.Errorf("replaced key = %q", key)
	}
}

func TestAuditLogOrderingAndLimit(t *testing.T) {
	newTestStore(t)

	for _, action := range []string{"A", "B", "C"} {
		if err := LogAction(action, "details"); err != nil {
			t.Fatalf("LogAction: %v", err)
		}
	}

	entries, err := GetAuditLog(2)
	if err != nil {
		t.Fatalf("GetAuditLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Action != "C" || entries[1].Action != "B" {
		t.Errorf("unexpected order: %s, %s", entries[0].Action, entries[1].Action)
	}
	if entries[0].Username == "" {
		t.Error("expected a username on audit entries")
	}
}

func TestDeploymentHistory(t *testing.T) {
	newTestStore(t)

	rec := model.DeploymentRecord{
		Target:     "pi@rover-01",
		LocalPath:  "src/agent/main.py",
		RemotePath: "/home/pi/robot/src/agent/main.py",
		Status:     string(model.FileDeployed),
		Attempts:   2,
	}
	if err := RecordDeployment(rec); err != nil {
		t.Fatalf("RecordDeployment: %v", err)
	}

	recs, err := GetDeployments(10)
	if err != nil {
		t.Fatalf("GetDeployments: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", recs[0].Attempts)
	}
	if recs[0].Timestamp == "" {
		t.Error("expected a timestamp to be filled in")
	}
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestStore(t)

	if _, err := AddTarget(model.Target{Username: "pi", Hostname: "rover-01", Tags: "indoor"}); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := SetKnownHostKey("rover-01", "ssh-ed25519 AAAA"); err != nil {
		t.Fatalf("SetKnownHostKey: %v", err)
	}
	if err := LogAction("DEPLOY_SUCCESS", "target: pi@rover-01"); err != nil {
		t.Fatalf("LogAction: %v", err)
	}
	if err := RecordDeployment(model.DeploymentRecord{Target: "pi@rover-01", LocalPath: "a", RemotePath: "/b", Status: "deployed", Attempts: 1}); err != nil {
		t.Fatalf("RecordDeployment: %v", err)
	}

	data, err := src.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}
	if len(data.Targets) != 1 || len(data.KnownHosts) != 1 || len(data.AuditLog) != 1 || len(data.Deployments) != 1 {
		t.Fatalf("unexpected backup counts: %+v", data)
	}

	// Restore into a fresh database.
	dst := newTestStore(t)
	if err := dst.ImportBackup(data); err != nil {
		t.Fatalf("ImportBackup: %v", err)
	}

	targets, err := dst.GetAllTargets()
	if err != nil {
		t.Fatalf("GetAllTargets: %v", err)
	}
	if len(targets) != 1 || targets[0].Tags != "indoor" {
		t.Fatalf("restored targets = %+v", targets)
	}
	key, _ := dst.GetKnownHostKey("rover-01")
	if key != "ssh-ed25519 AAAA" {
		t.Errorf("restored key = %q", key)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "migrate-twice.db")
	if _, err := NewStoreFromDSN("sqlite", dsn); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := NewStoreFromDSN("sqlite", dsn); err != nil {
		t.Fatalf("second open: %v", err)
	}
}
