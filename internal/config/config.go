// Package config defines the run configuration of the jsontable CLI.
//
// A run file is YAML or JSON (chosen by extension) and every setting can be
// overridden from the environment. Secrets such as the database DSN are
// best supplied through DATABASE_URL rather than the file.
//
// Example (trimmed):
//
//	schema: schemas/members.json
//	files: [data/members.csv]
//	stop_if_invalid: false
//	storage:
//	  kind: postgres
//	  table: public.members
//	  store: true
//	metrics:
//	  backend: prompush
//	  pushgateway_url: http://localhost:9091
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
)

// Run is the top-level run configuration.
type Run struct {
	// Job labels metrics and logs of this run.
	Job string `yaml:"job" json:"job" env:"JSONTABLE_JOB" env-default:"jsontable"`

	// Schema is the path of the table schema JSON file.
	Schema string `yaml:"schema" json:"schema" env:"JSONTABLE_SCHEMA"`

	// Files lists the CSV files to validate. FileList optionally names a
	// text file with one path per line, resolved relative to that file.
	Files    []string `yaml:"files" json:"files" env:"JSONTABLE_FILES" env-separator:","`
	FileList string   `yaml:"file_list" json:"file_list" env:"JSONTABLE_FILE_LIST"`

	CSV CSV `yaml:"csv" json:"csv"`

	// StopIfInvalid ends each run at the first data error.
	StopIfInvalid bool `yaml:"stop_if_invalid" json:"stop_if_invalid" env:"JSONTABLE_STOP_IF_INVALID"`

	// Concurrency bounds how many files are validated at once.
	Concurrency int `yaml:"concurrency" json:"concurrency" env:"JSONTABLE_CONCURRENCY" env-default:"4"`

	Storage Storage `yaml:"storage" json:"storage"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Log     Log     `yaml:"log" json:"log"`
}

// CSV configures the tabular reader.
type CSV struct {
	// Comma is the field delimiter: a single character, or "tab".
	Comma string `yaml:"comma" json:"comma" env:"JSONTABLE_CSV_COMMA" env-default:","`
	// Encoding is a WHATWG label such as "utf-8" or "windows-1250".
	Encoding  string `yaml:"encoding" json:"encoding" env:"JSONTABLE_CSV_ENCODING" env-default:"utf-8"`
	TrimSpace bool   `yaml:"trim_space" json:"trim_space" env:"JSONTABLE_CSV_TRIM_SPACE"`
}

// Storage configures the relational store used for foreign key lookups and
// for loading valid files.
type Storage struct {
	// Kind selects the backend: "postgres" or "sqlite".
	Kind     string `yaml:"kind" json:"kind" env:"JSONTABLE_STORAGE_KIND" env-default:"postgres"`
	DSN      string `yaml:"dsn" json:"dsn" env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" json:"max_conns" env:"JSONTABLE_STORAGE_MAX_CONNS" env-default:"4"`

	// Table receives the rows of valid files when Store is set.
	Table      string `yaml:"table" json:"table" env:"JSONTABLE_STORAGE_TABLE"`
	PrimaryKey string `yaml:"primary_key" json:"primary_key" env:"JSONTABLE_STORAGE_PRIMARY_KEY" env-default:"id"`
	Store      bool   `yaml:"store" json:"store" env:"JSONTABLE_STORAGE_STORE"`

	// CreateTable creates Table from the schema when it does not exist.
	CreateTable bool `yaml:"create_table" json:"create_table" env:"JSONTABLE_STORAGE_CREATE_TABLE"`
}

// Enabled reports whether a database is configured at all.
func (s Storage) Enabled() bool { return strings.TrimSpace(s.DSN) != "" }

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prompush" or "datadog".
	Backend        string `yaml:"backend" json:"backend" env:"JSONTABLE_METRICS_BACKEND" env-default:"none"`
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url" env:"JSONTABLE_PUSHGATEWAY_URL"`
	DatadogAddr    string `yaml:"datadog_addr" json:"datadog_addr" env:"JSONTABLE_DATADOG_ADDR" env-default:"127.0.0.1:8125"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level" env:"JSONTABLE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" json:"format" env:"JSONTABLE_LOG_FORMAT" env-default:"json"`
}

// Load reads the run file at path with environment overrides. An empty
// path reads the environment only.
func Load(path string) (*Run, error) {
	cfg := &Run{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// CommaRune returns the delimiter as a rune. "tab" and `\t` mean a tab.
func (c CSV) CommaRune() (rune, error) {
	switch c.Comma {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	if utf8.RuneCountInString(c.Comma) != 1 {
		return 0, fmt.Errorf("comma %q must be a single character", c.Comma)
	}
	r, _ := utf8.DecodeRuneInString(c.Comma)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("comma %q is not a valid delimiter", c.Comma)
	}
	return r, nil
}
