package main

import (
	"testing"

	"baton/cmd"
)

func TestVersionVariable(t *testing.T) {
	tests := []struct {
		name     string
		setValue string
		expected string
	}{
		{
			name:     "default version",
			setValue: "",
			expected: "dev",
		},
		{
			name:     "custom version",
			setValue: "v1.0.0",
			expected: "v1.0.0",
		},
		{
			name:     "semantic version",
			setValue: "2.3.4-beta.1",
			expected: "2.3.4-beta.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalVersion := version
			defer func() { version = originalVersion }()

			if tt.setValue != "" {
				version = tt.setValue
			}

			if version != tt.expected {
				t.Errorf("Expected version %s, got %s", tt.expected, version)
			}
		})
	}
}

func TestVersionIsInjectedIntoCmd(t *testing.T) {
	originalVersion := version
	defer func() {
		version = originalVersion
		cmd.SetVersion(originalVersion)
	}()

	version = "test-version-main"
	cmd.SetVersion(version)

	if cmd.GetVersion() != "test-version-main" {
		t.Errorf("Expected cmd to carry version %q, got %q", "test-version-main", cmd.GetVersion())
	}
}
