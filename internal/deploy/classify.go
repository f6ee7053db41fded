// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import (
	"strings"
	"time"
)

// Default connection parameters. The Raspberry Pi targets are on local
// networks; anything slower than these is treated as a failure.
const (
	DefaultConnectionTimeout = 10 * time.Second
	DefaultCommandTimeout    = 60 * time.Second
	DefaultSFTPTimeout       = 30 * time.Second
)

// ConnectionConfig bundles the timeouts applied to a deployment connection.
type ConnectionConfig struct {
	ConnectionTimeout time.Duration
	CommandTimeout    time.Duration
	SFTPTimeout       time.Duration
}

// DefaultConnectionConfig returns the standard timeouts.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectionTimeout: DefaultConnectionTimeout,
		CommandTimeout:    DefaultCommandTimeout,
		SFTPTimeout:       DefaultSFTPTimeout,
	}
}

// IsConnectionTimeoutError reports whether err looks like a timeout. The
// ssh package does not expose typed errors for these, so we match on the
// strings it produces.
func IsConnectionTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "i/o timeout")
}

// IsConnectionRefusedError reports whether err indicates the host is
// unreachable or refusing connections.
func IsConnectionRefusedError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no route to host") ||
		strings.Contains(msg, "network is unreachable")
}

// IsAuthenticationError reports whether err indicates rejected credentials.
func IsAuthenticationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "authentication failed") ||
		strings.Contains(msg, "permission denied")
}

// IsHostKeyError reports whether err came from host key verification.
func IsHostKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unknown host key") ||
		strings.Contains(msg, "HOST KEY MISMATCH")
}
