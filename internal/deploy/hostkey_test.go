// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/botship/botship/internal/db"
)

func newHostKeyTestStore(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_hostkey_%d?mode=memory&cache=shared", time.Now().UnixNano())
	s, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	db.SetStore(s)
	t.Cleanup(func() { db.SetStore(nil) })
}

func genHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("ssh.NewPublicKey: %v", err)
	}
	return key
}

func TestVerifyHostKey(t *testing.T) {
	newHostKeyTestStore(t)

	pinned := genHostKey(t)
	other := genHostKey(t)
	if err := db.SetKnownHostKey("rover-01", string(ssh.MarshalAuthorizedKey(pinned))); err != nil {
		t.Fatalf("SetKnownHostKey: %v", err)
	}

	tests := []struct {
		name     string
		hostname string
		key      ssh.PublicKey
		wantErr  string
	}{
		{"pinned key matches", "rover-01:22", pinned, ""},
		{"port stripped before lookup", "rover-01:2222", pinned, ""},
		{"unknown host rejected", "rover-99:22", pinned, "trust-host"},
		{"mismatching key rejected", "rover-01:22", other, "HOST KEY MISMATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyHostKey(tt.hostname, tt.key)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("verifyHostKey: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected the connection to be rejected")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
