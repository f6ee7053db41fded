// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keys renders and installs the robot's API credential file. The
// object finder on the target reads its OpenAI key from keys.env; this
// package owns that file's format and permissions.
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/security"
)

// DefaultFileName is the credential file the object finder expects next to
// its binary.
const DefaultFileName = "keys.env"

// EnvVar is the variable name inside the credential file.
const EnvVar = "OPENAI_API_KEY"

// FileMode keeps the credential file private to the robot user.
const FileMode = 0o600

// Render produces the credential file content for the given API key. The
// returned slice holds the secret; callers zero it when done.
func Render(apiKey security.Secret) []byte {
	key := apiKey.Bytes()
	out := make([]byte, 0, len(EnvVar)+1+len(key)+1)
	out = append(out, EnvVar...)
	out = append(out, '=')
	out = append(out, key...)
	out = append(out, '\n')
	for i := range key {
		key[i] = 0
	}
	return out
}

// Validate checks that the key is usable before anything is written.
func Validate(apiKey security.Secret) error {
	if len(strings.TrimSpace(string(apiKey.Bytes()))) == 0 {
		return fmt.Errorf("%s", i18n.T("setup_key.error_empty"))
	}
	return nil
}

// FromClipboard reads an API key from the system clipboard, trimming the
// whitespace editors and terminals tend to add.
func FromClipboard() (security.Secret, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf(i18n.T("setup_key.error_clipboard"), err)
	}
	return security.FromString(strings.TrimSpace(text)), nil
}

// WriteLocal writes the credential file at path with owner-only
// permissions, creating parent directories as needed.
func WriteLocal(path string, apiKey security.Secret) error {
	if err := Validate(apiKey); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf(i18n.T("setup_key.error_write"), err)
		}
	}
	content := Render(apiKey)
	defer func() {
		for i := range content {
			content[i] = 0
		}
	}()
	if err := os.WriteFile(path, content, FileMode); err != nil {
		return fmt.Errorf(i18n.T("setup_key.error_write"), err)
	}
	return nil
}
