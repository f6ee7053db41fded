// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package manifest loads and validates the YAML deployment manifest: the
// set of local files to install on a robot, where they land on the remote
// side, and the commands to run after a successful transfer.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default retry policy. The retry loop attempts a transfer exactly
// Retries times with a fixed delay between attempts.
const (
	DefaultRetries    = 3
	DefaultRetryDelay = 2 * time.Second
)

// File is a single local → remote pair in the manifest.
type File struct {
	// Local is the source path, relative to the manifest file's directory
	// unless absolute.
	Local string `yaml:"local"`

	// Remote is the destination path, relative to the manifest's
	// remote_base unless absolute.
	Remote string `yaml:"remote"`

	// Mode is the octal permission string (e.g. "0644"). Empty selects
	// 0644, or 0755 when Executable is set.
	Mode string `yaml:"mode,omitempty"`

	// Executable marks the file to be installed with the execute bit set.
	Executable bool `yaml:"executable,omitempty"`
}

// Manifest describes one deployment: files, destination base path,
// post-deploy commands, and the retry policy.
type Manifest struct {
	// RemoteBase is the directory on the target under which relative
	// remote paths are resolved (e.g. /home/pi/robot).
	RemoteBase string `yaml:"remote_base"`

	// Retries is the exact number of transfer attempts per file.
	Retries int `yaml:"retries,omitempty"`

	// RetryDelay is the fixed pause between attempts, in seconds.
	RetryDelay int `yaml:"retry_delay,omitempty"`

	// Files are deployed in order; a failed file does not stop the rest.
	Files []File `yaml:"files"`

	// Post are shell commands run on the target after the transfer pass.
	// Failures are logged but do not fail the deployment.
	Post []string `yaml:"post,omitempty"`

	// dir is the directory the manifest was loaded from, used to resolve
	// relative local paths.
	dir string
}

// Load reads and parses a manifest file. Relative local paths are
// interpreted against the manifest's own directory.
func Load(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", file, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", file, err)
	}
	m.dir = filepath.Dir(file)

	if m.Retries == 0 {
		m.Retries = DefaultRetries
	}
	if m.RetryDelay == 0 {
		m.RetryDelay = int(DefaultRetryDelay / time.Second)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest's shape and that every local source file
// exists. It is called before any remote connection is opened so that a
// missing precondition never causes remote mutation.
func (m *Manifest) Validate() error {
	if len(m.Files) == 0 {
		return fmt.Errorf("manifest has no files")
	}
	if m.RemoteBase == "" {
		return fmt.Errorf("manifest is missing remote_base")
	}
	if m.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", m.Retries)
	}
	if m.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %d", m.RetryDelay)
	}

	for i, f := range m.Files {
		if f.Local == "" {
			return fmt.Errorf("files[%d]: missing local path", i)
		}
		if f.Remote == "" {
			return fmt.Errorf("files[%d]: missing remote path", i)
		}
		if _, err := f.FileMode(); err != nil {
			return fmt.Errorf("files[%d]: %w", i, err)
		}
		local := m.LocalPath(f)
		info, err := os.Stat(local)
		if err != nil {
			return fmt.Errorf("files[%d]: local file missing: %s", i, local)
		}
		if info.IsDir() {
			return fmt.Errorf("files[%d]: %s is a directory, expected a file", i, local)
		}
	}
	return nil
}

// LocalPath resolves a file's local source path against the manifest directory.
func (m *Manifest) LocalPath(f File) string {
	if filepath.IsAbs(f.Local) {
		return f.Local
	}
	return filepath.Join(m.dir, f.Local)
}

// RemotePath resolves a file's destination against remote_base. Remote
// paths always use forward slashes regardless of the local OS.
func (m *Manifest) RemotePath(f File) string {
	remote := filepath.ToSlash(f.Remote)
	if strings.HasPrefix(remote, "/") {
		return remote
	}
	return path.Join(m.RemoteBase, remote)
}

// Delay returns the pause between transfer attempts.
func (m *Manifest) Delay() time.Duration {
	return time.Duration(m.RetryDelay) * time.Second
}

// FileMode returns the permission bits for the file: the parsed octal Mode
// when set, otherwise 0755 for executables and 0644 for everything else.
func (f File) FileMode() (fs.FileMode, error) {
	if f.Mode == "" {
		if f.Executable {
			return 0o755, nil
		}
		return 0o644, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(f.Mode, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: %w", f.Mode, err)
	}
	mode := fs.FileMode(n)
	if f.Executable {
		mode |= 0o111
	}
	return mode, nil
}
