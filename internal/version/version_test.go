// ABOUTME: Tests for version constants
// ABOUTME: Checks the values reported in the protocol hello are usable
package version

import (
	"strconv"
	"strings"
	"testing"
)

func TestVersionIsSemantic(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected major.minor.patch, got %q", Version)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			t.Errorf("version component %q is not a number", p)
		}
	}
}

func TestDeviceStrings(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"product", Product},
		{"manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if strings.TrimSpace(tt.value) == "" {
				t.Fatal("should not be blank")
			}
			if len(tt.value) > 64 {
				t.Errorf("%q is too long for a device name", tt.value)
			}
			if !strings.Contains(tt.value, "Metrodrone") {
				t.Errorf("%q should name the product", tt.value)
			}
		})
	}
}
