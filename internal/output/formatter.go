package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(report *Report, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // One-line summary
	VerbosityStandard                       // Metrics + flagged files
	VerbosityJSON                           // Machine-readable JSON
)

// NewFormatter creates the appropriate formatter for the level
func NewFormatter(level VerbosityLevel) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{}
	default:
		return &StandardFormatter{}
	}
}

// GetDefaultVerbosity returns the appropriate default based on environment
func GetDefaultVerbosity() VerbosityLevel {
	// CI/CD context
	if os.Getenv("CI") == "true" {
		return VerbosityStandard
	}

	// Piped output gets the one-line summary
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return VerbosityQuiet
	}

	return VerbosityStandard
}
