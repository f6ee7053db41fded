// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package validate checks user-supplied launch parameters before any
// remote action is taken. Rejections happen locally with a usage message;
// no SSH connection is opened for invalid input.
package validate

import (
	"errors"
	"strconv"
	"strings"

	"github.com/botship/botship/internal/i18n"
)

// ParseTimeout parses a search timeout given in seconds. It must be a
// positive integer.
func ParseTimeout(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, errors.New(i18n.T("search.error_timeout", raw))
	}
	return n, nil
}

// ParseConfidence parses a detection confidence threshold. It must be a
// number in [0.0, 1.0].
func ParseConfidence(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0.0 || f > 1.0 {
		return 0, errors.New(i18n.T("search.error_confidence", raw))
	}
	return f, nil
}

// ObjectName validates and normalizes the object to search for. Leading and
// trailing whitespace is dropped; an empty name is rejected.
func ObjectName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New(i18n.T("search.error_object_required"))
	}
	return name, nil
}
