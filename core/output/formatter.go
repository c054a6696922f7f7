// Package output renders quotes for humans and machines.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"discount-engine/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is one priced order as shown to the user
type Report struct {
	// Input is the context after the validation pipeline
	Input types.PricingContext `json:"input"`

	// Quote is the engine's answer
	Quote types.Quote `json:"quote"`

	// Policy is the aggregation policy in force
	Policy types.Policy `json:"policy"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// Metadata contains execution context
type Metadata struct {
	// Timestamp is when the quote was computed
	Timestamp string `json:"timestamp"`

	// Version is the tool version
	Version string `json:"version"`

	// RulesSource is the rule-set file, or "builtin"
	RulesSource string `json:"rules_source"`
}

// ForFormat returns the formatter for f
func ForFormat(f Format) (Formatter, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatCLI, "":
		return CLIFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s)", f, strings.Join(Formats(), ", "))
	}
}

// Formats lists the supported format names
func Formats() []string {
	out := []string{string(FormatCLI), string(FormatJSON)}
	sort.Strings(out)
	return out
}
