// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/botship/botship/internal/security"
)

func TestRender(t *testing.T) {
	got := Render(security.FromString("sk-test-123"))
	want := "OPENAI_API_KEY=sk-test-123\n"
	if string(got) != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	if err := Validate(security.FromString("")); err == nil {
		t.Error("empty key should be rejected")
	}
	if err := Validate(security.FromString("   \n")); err == nil {
		t.Error("whitespace-only key should be rejected")
	}
	if err := Validate(security.FromString("sk-test")); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
}

func TestWriteLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "keys.env")

	if err := WriteLocal(path, security.FromString("sk-test-123")); err != nil {
		t.Fatalf("WriteLocal failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "OPENAI_API_KEY=sk-test-123\n" {
		t.Errorf("file content = %q", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
		}
	}
}

func TestWriteLocalRejectsEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.env")
	if err := WriteLocal(path, security.FromString("")); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written for an invalid key")
	}
}
