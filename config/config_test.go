package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

func parseConfig(t *testing.T, args []string) (Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test", Args: cobra.ArbitraryArgs, Run: func(*cobra.Command, []string) {}}
	RegisterFlags(cmd)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return LoadConfig(cmd, cmd.Flags().Args())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, []string{"some.mbox"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MboxPath != "some.mbox" {
		t.Errorf("MboxPath = %q, want %q", cfg.MboxPath, "some.mbox")
	}
	if cfg.Aggregate || cfg.SortBySize {
		t.Errorf("Aggregate = %v, SortBySize = %v, want both false", cfg.Aggregate, cfg.SortBySize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if diff := cmp.Diff(DefaultLabelPolicy(), cfg.Labels); diff != "" {
		t.Errorf("label policy mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := parseConfig(t, []string{"--agg", "--sort", "--log-level", "WARNING", "some.mbox"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Aggregate || !cfg.SortBySize {
		t.Errorf("Aggregate = %v, SortBySize = %v, want both true", cfg.Aggregate, cfg.SortBySize)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (warning alias)", cfg.LogLevel)
	}
}

func TestLoadConfigInvalidLogLevel(t *testing.T) {
	if _, err := parseConfig(t, []string{"--log-level", "verbose", "some.mbox"}); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestLoadConfigFilterFlagsMutuallyExclusive(t *testing.T) {
	_, err := parseConfig(t, []string{
		"--include-header", "x",
		"--exclude-body", "y",
		"some.mbox",
	})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("error = %v, want mutually exclusive error", err)
	}
}

func TestLoadConfigMissingPath(t *testing.T) {
	if _, err := parseConfig(t, nil); err == nil {
		t.Error("expected error when the mbox path is missing")
	}
}

func TestLabelPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.toml")
	content := `label-header = "X-Labels"
boring-labels = ["Archive", "Muted"]
boring-prefixes = ["Auto/"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	cfg, err := parseConfig(t, []string{"--labels-config", path, "some.mbox"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := LabelPolicy{
		LabelHeader:    "X-Labels",
		BoringLabels:   []string{"Archive", "Muted"},
		BoringPrefixes: []string{"Auto/"},
	}
	if diff := cmp.Diff(want, cfg.Labels); diff != "" {
		t.Errorf("label policy mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelPolicyUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.toml")
	if err := os.WriteFile(path, []byte("labelheader = \"X\"\n"), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	if _, err := parseConfig(t, []string{"--labels-config", path, "some.mbox"}); err == nil {
		t.Error("expected error for unknown policy key")
	}
}

func TestLabelPolicyMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, err := parseConfig(t, []string{"--labels-config", missing, "some.mbox"}); err == nil {
		t.Error("expected error for missing policy file")
	}
}
