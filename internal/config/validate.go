package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"jsontable/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single finding. Path is a dotted path into the config,
// e.g. "storage.table".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRun lints a Run after flags have been merged into it. It does not
// mutate the config.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if strings.TrimSpace(r.Schema) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema",
			Message:  "schema must name a table schema file",
		})
	}
	if len(r.Files) == 0 && strings.TrimSpace(r.FileList) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "files",
			Message:  "no input files; set files, file_list or pass paths as arguments",
		})
	}
	if r.Concurrency < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "concurrency",
			Message:  "concurrency must not be negative",
		})
	}

	issues = append(issues, validateCSV(r.CSV)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	issues = append(issues, validateLog(r.Log)...)
	return issues
}

func validateCSV(c CSV) []Issue {
	var issues []Issue
	if _, err := c.CommaRune(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "csv.comma",
			Message:  err.Error(),
		})
	}
	if c.Encoding != "" {
		if _, err := htmlindex.Get(c.Encoding); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "csv.encoding",
				Message:  fmt.Sprintf("unknown encoding %q", c.Encoding),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"postgres": {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok && s.Enabled() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q", s.Kind),
		})
	}

	if s.Store || s.CreateTable {
		if !s.Enabled() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.dsn",
				Message:  "storing rows requires storage.dsn (or DATABASE_URL)",
			})
		}
		if err := storage.CheckIdent(s.Table); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.table",
				Message:  fmt.Sprintf("storage.table: %v", err),
			})
		}
		if err := storage.CheckIdent(s.PrimaryKey); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.primary_key",
				Message:  fmt.Sprintf("storage.primary_key: %v", err),
			})
		}
	}
	if s.CreateTable && !s.Store {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.create_table",
			Message:  "create_table is set but store is not; the table will be created and left empty",
		})
	}
	if !s.Enabled() {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.dsn",
			Message:  "no database configured; schemas with foreign keys will fail",
		})
	}
	if s.MaxConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.max_conns",
			Message:  "max_conns must not be negative",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "prompush":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prompush backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Format) {
	case "", "json", "console":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; json is used", l.Format),
		})
	}
	return issues
}
