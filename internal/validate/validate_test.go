// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package validate

import (
	"strings"
	"testing"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"valid", "30", 30, false},
		{"valid with spaces", " 5 ", 5, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"non-numeric", "abc", 0, true},
		{"float", "3.5", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeout(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeout(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseTimeout(%q) = %d, want %d", tt.raw, got, tt.want)
			}
			if err != nil && !strings.Contains(err.Error(), "positive integer") {
				t.Errorf("error message should reference a positive integer, got %q", err)
			}
		})
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{"zero", "0.0", 0.0, false},
		{"one", "1.0", 1.0, false},
		{"middle", "0.65", 0.65, false},
		{"above range", "1.5", 0, true},
		{"below range", "-0.1", 0, true},
		{"non-numeric", "high", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfidence(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfidence(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseConfidence(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	if _, err := ObjectName("  "); err == nil {
		t.Error("expected error for blank object name")
	}
	got, err := ObjectName(" backpack ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "backpack" {
		t.Errorf("ObjectName trimmed = %q, want %q", got, "backpack")
	}
}
