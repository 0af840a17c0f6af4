// Package config holds runtime configuration: defaults and validation.
// Values come from command-line flags only.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Colors when stdout is a terminal (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

const (
	DefaultOutput  = "stitched_document.pdf"
	DefaultPattern = "*.pdf"
)

// Config holds all runtime settings. It is populated by [Default] and then
// mutated by the command's flag handling before being passed by pointer.
type Config struct {
	// Input selection. Files take precedence over InputDir.
	InputDir string
	Files    []string
	Pattern  string // Default: "*.pdf". Only used in directory mode.

	// Output.
	Output     string // Default: "stitched_document.pdf".
	ReportFile string // Optional YAML run report.

	// Behavior flags.
	Label          bool // Default: true. Cleared by --no-source.
	ValidateOutput bool
	Verbose        bool

	// Logging.
	LogFile   string
	ColorMode ColorMode
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Pattern:   DefaultPattern,
		Output:    DefaultOutput,
		Label:     true,
		ColorMode: ColorAuto,
	}
}

// Validate checks settings that can be verified without touching input
// files. Input existence is checked by the resolver.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path must not be empty"))
	} else if strings.HasSuffix(c.Output, string(filepath.Separator)) {
		errs = append(errs, fmt.Errorf("output path %q is a directory", c.Output))
	}

	if c.Pattern != "" {
		if _, err := filepath.Match(c.Pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid pattern %q: %w", c.Pattern, err))
		}
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("invalid color mode %q (want auto, always or never)", c.ColorMode))
	}

	if c.ReportFile != "" && filepath.Clean(c.ReportFile) == filepath.Clean(c.Output) {
		errs = append(errs, errors.New("report file and output must differ"))
	}

	return errors.Join(errs...)
}
