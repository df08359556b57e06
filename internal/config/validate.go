package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "db.dsn"); Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where one is expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config and returns the findings.
// Callers decide whether warnings block execution.
func Validate(c Config) []Issue {
	var issues []Issue

	switch c.DB.Kind {
	case "postgres", "sqlite":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.kind",
			Message:  "db.kind must be set (postgres or sqlite)",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.kind",
			Message:  fmt.Sprintf("unknown backend %q (expected postgres or sqlite)", c.DB.Kind),
		})
	}

	if strings.TrimSpace(c.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "db.dsn",
			Message:  "db.dsn must not be empty",
		})
	}
	if c.DB.Kind == "sqlite" && c.DB.Schema != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "db.schema",
			Message:  "db.schema is ignored by the sqlite backend",
		})
	}

	if c.Load.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.batch_size",
			Message:  "load.batch_size must be >= 0 (0 selects the default)",
		})
	}
	if c.Load.BatchSize > 0 && c.Load.BatchSize < 100 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "load.batch_size",
			Message:  "very small batch sizes defeat bulk loading; consider >= 1000",
		})
	}

	if c.Runtime.FileWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.file_workers",
			Message:  "runtime.file_workers must be >= 0 (0 means sequential)",
		})
	}

	return issues
}
