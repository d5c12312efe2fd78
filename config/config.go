package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Config captures all command-line options required to run the analyzer.
type Config struct {
	MboxPath      string
	Aggregate     bool
	SortBySize    bool
	LogLevel      string
	LabelsConfig  string
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
	Labels        LabelPolicy
}

// LabelPolicy controls which classification header is read and which labels
// are dropped as built-in noise before the remainder is sorted and joined.
type LabelPolicy struct {
	LabelHeader    string   `toml:"label-header"`
	BoringLabels   []string `toml:"boring-labels"`
	BoringPrefixes []string `toml:"boring-prefixes"`
}

// DefaultLabelPolicy matches a Gmail takeout: the X-Gmail-Labels header with
// the built-in Inbox/Important/Opened and "Category " labels dropped.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		LabelHeader:    "X-Gmail-Labels",
		BoringLabels:   []string{"Inbox", "Important", "Opened"},
		BoringPrefixes: []string{"Category "},
	}
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("agg", false, "Aggregate statistics by (sender, labels) rather than printing a line per message")
	flags.Bool("sort", false, "Sort statistics by total size in bytes, ascending")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("labels-config", "", "Path to a TOML file overriding the label header and boring-label policy")
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
}

// LoadConfig converts the parsed Cobra flags and the positional mbox path
// into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	if len(args) != 1 {
		return Config{}, fmt.Errorf("expected exactly one mbox file argument")
	}

	flags := cmd.Flags()

	aggregate, err := flags.GetBool("agg")
	if err != nil {
		return Config{}, err
	}
	sortBySize, err := flags.GetBool("sort")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	labelsConfig, err := flags.GetString("labels-config")
	if err != nil {
		return Config{}, err
	}
	includeHeader, err := flags.GetStringArray("include-header")
	if err != nil {
		return Config{}, err
	}
	includeBody, err := flags.GetStringArray("include-body")
	if err != nil {
		return Config{}, err
	}
	excludeHeader, err := flags.GetStringArray("exclude-header")
	if err != nil {
		return Config{}, err
	}
	excludeBody, err := flags.GetStringArray("exclude-body")
	if err != nil {
		return Config{}, err
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	labels, err := loadLabelPolicy(labelsConfig)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		MboxPath:      strings.TrimSpace(args[0]),
		Aggregate:     aggregate,
		SortBySize:    sortBySize,
		LogLevel:      logLevel,
		LabelsConfig:  labelsConfig,
		IncludeHeader: includeHeader,
		IncludeBody:   includeBody,
		ExcludeHeader: excludeHeader,
		ExcludeBody:   excludeBody,
		Labels:        labels,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadLabelPolicy(path string) (LabelPolicy, error) {
	policy := DefaultLabelPolicy()
	if strings.TrimSpace(path) == "" {
		return policy, nil
	}

	meta, err := toml.DecodeFile(path, &policy)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LabelPolicy{}, fmt.Errorf("labels config %s does not exist", path)
		}
		return LabelPolicy{}, fmt.Errorf("parse labels config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return LabelPolicy{}, fmt.Errorf("labels config %s: unknown key %q", path, undecoded[0].String())
	}
	if strings.TrimSpace(policy.LabelHeader) == "" {
		return LabelPolicy{}, fmt.Errorf("labels config %s: label-header must not be empty", path)
	}

	return policy, nil
}

func validateConfig(cfg Config) error {
	if cfg.MboxPath == "" {
		return fmt.Errorf("mbox file path is required")
	}
	includeActive := len(cfg.IncludeHeader) > 0 || len(cfg.IncludeBody) > 0
	excludeActive := len(cfg.ExcludeHeader) > 0 || len(cfg.ExcludeBody) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
