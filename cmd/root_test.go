package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"baton/pkg/conduct"

	"github.com/spf13/cobra"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
	if GetVersion() != testVersion {
		t.Errorf("Expected GetVersion to return %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "baton" {
		t.Errorf("Expected Use to be 'baton', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestRootHasCoreSubcommands(t *testing.T) {
	want := []string{"list", "demo", "stress", "version"}

	registered := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		registered[sub.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}

	// Same template Execute() installs on the root command.
	testCmd.SetVersionTemplate(`{{printf "baton version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})

	err := testCmd.Execute()
	if err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	output := buf.String()
	expected := "baton version 1.0.0\n"
	if output != expected {
		t.Errorf("Expected output %q, got %q", expected, output)
	}
}

func TestGetExitCode(t *testing.T) {
	// A real lifecycle violation, produced through the public API.
	c := conduct.New()
	if err := c.Conduct(); err != nil {
		t.Fatalf("Conduct on an empty conductor should succeed, got %v", err)
	}
	usageErr := c.Conduct()
	if usageErr == nil {
		t.Fatal("Expected the second Conduct to fail")
	}

	timeoutErr := &conduct.TimeoutError{
		Limit:      time.Second,
		Stragglers: []string{"busy"},
	}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "generic error",
			err:      errors.New("something broke"),
			expected: ExitCodeError,
		},
		{
			name:     "timeout error",
			err:      timeoutErr,
			expected: ExitCodeTimeout,
		},
		{
			name:     "wrapped timeout error",
			err:      fmt.Errorf("demo %q: %w", "stall", timeoutErr),
			expected: ExitCodeTimeout,
		},
		{
			name:     "usage error",
			err:      usageErr,
			expected: ExitCodeUsage,
		},
		{
			name:     "wrapped usage error",
			err:      fmt.Errorf("running again: %w", usageErr),
			expected: ExitCodeUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := getExitCode(tt.err)
			if got != tt.expected {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestPersistentFlagsRegistered(t *testing.T) {
	for _, name := range []string{"verbose", "debug"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s to be registered", name)
		}
	}
}

func TestRootLongMentionsSubcommands(t *testing.T) {
	for _, phrase := range []string{"baton list", "baton demo", "baton stress"} {
		if !strings.Contains(rootCmd.Long, phrase) {
			t.Errorf("Expected Long help to mention %q", phrase)
		}
	}
}
