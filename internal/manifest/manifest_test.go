// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeManifest writes a manifest file plus the listed source files into a
// temp dir and returns the manifest path.
func writeManifest(t *testing.T, body string, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, src := range sources {
		p := filepath.Join(dir, src)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("content"), 0o644); err != nil {
			t.Fatalf("write source: %v", err)
		}
	}
	mf := filepath.Join(dir, "botship.manifest.yaml")
	if err := os.WriteFile(mf, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return mf
}

func TestLoadValidManifest(t *testing.T) {
	mf := writeManifest(t, `
remote_base: /home/pi/robot
retries: 5
retry_delay: 1
files:
  - local: src/agent/main.py
    remote: src/agent/main.py
  - local: run.sh
    remote: run.sh
    executable: true
post:
  - "touch /home/pi/robot/.deployed"
`, "src/agent/main.py", "run.sh")

	m, err := Load(mf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Retries != 5 {
		t.Errorf("Retries = %d, want 5", m.Retries)
	}
	if m.Delay() != time.Second {
		t.Errorf("Delay() = %v, want 1s", m.Delay())
	}
	if len(m.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(m.Files))
	}
	if got := m.RemotePath(m.Files[0]); got != "/home/pi/robot/src/agent/main.py" {
		t.Errorf("RemotePath = %q", got)
	}
	if len(m.Post) != 1 {
		t.Errorf("len(Post) = %d, want 1", len(m.Post))
	}
}

func TestLoadAppliesRetryDefaults(t *testing.T) {
	mf := writeManifest(t, `
remote_base: /home/pi/robot
files:
  - local: run.sh
    remote: run.sh
`, "run.sh")

	m, err := Load(mf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Retries != DefaultRetries {
		t.Errorf("Retries = %d, want default %d", m.Retries, DefaultRetries)
	}
	if m.Delay() != DefaultRetryDelay {
		t.Errorf("Delay() = %v, want default %v", m.Delay(), DefaultRetryDelay)
	}
}

func TestLoadRejectsMissingLocalFile(t *testing.T) {
	mf := writeManifest(t, `
remote_base: /home/pi/robot
files:
  - local: does-not-exist.py
    remote: x.py
`)

	_, err := Load(mf)
	if err == nil {
		t.Fatal("expected error for missing local file")
	}
	if !strings.Contains(err.Error(), "local file missing") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadRejectsEmptyManifest(t *testing.T) {
	mf := writeManifest(t, `
remote_base: /home/pi/robot
files: []
`)
	if _, err := Load(mf); err == nil {
		t.Fatal("expected error for manifest without files")
	}
}

func TestLoadRejectsMissingRemoteBase(t *testing.T) {
	mf := writeManifest(t, `
files:
  - local: run.sh
    remote: run.sh
`, "run.sh")
	if _, err := Load(mf); err == nil {
		t.Fatal("expected error for missing remote_base")
	}
}

func TestFileMode(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		want    os.FileMode
		wantErr bool
	}{
		{"default", File{}, 0o644, false},
		{"default executable", File{Executable: true}, 0o755, false},
		{"explicit", File{Mode: "0600"}, 0o600, false},
		{"explicit with exec bit", File{Mode: "0644", Executable: true}, 0o755, false},
		{"go-style octal", File{Mode: "0o640"}, 0o640, false},
		{"garbage", File{Mode: "rw-r--r--"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.file.FileMode()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FileMode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("FileMode() = %o, want %o", got, tt.want)
			}
		})
	}
}

func TestAbsoluteRemotePathBypassesBase(t *testing.T) {
	m := &Manifest{RemoteBase: "/home/pi/robot"}
	f := File{Local: "a", Remote: "/etc/robot/keys.env"}
	if got := m.RemotePath(f); got != "/etc/robot/keys.env" {
		t.Errorf("RemotePath = %q", got)
	}
}
