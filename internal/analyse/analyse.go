// Package analyse validates a CSV file against a table schema.
//
// An Analyser runs a fixed sequence of passes over its source: column
// presence, a lexical pass over every cell, primary key uniqueness and
// foreign key lookups. Data errors are accumulated and reported through
// Errors and Statistics; configuration problems abort the run and are
// returned as errors.
package analyse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"jsontable/internal/logging"
	"jsontable/internal/metrics"
	"jsontable/internal/parser/csv"
	"jsontable/internal/schema"
	"jsontable/internal/validate/foreignkey"
)

// ErrUnsupportedDataPackage is returned when a foreign key points at a
// datapackage other than schema.DefaultDataPackage, or when no validator is
// registered for it.
var ErrUnsupportedDataPackage = errors.New("unsupported datapackage")

// State tracks how far a run got.
type State int

const (
	StateInit State = iota
	StateColumnsChecked
	StateLexicallyChecked
	StatePrimaryKeyChecked
	StateForeignKeyChecked
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateColumnsChecked:
		return "columns_checked"
	case StateLexicallyChecked:
		return "lexically_checked"
	case StatePrimaryKeyChecked:
		return "primary_key_checked"
	case StateForeignKeyChecked:
		return "foreign_key_checked"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Analyser validates one source against one schema. It is not safe for
// concurrent use; run independent Analysers instead.
type Analyser struct {
	schema *schema.Schema
	src    *csv.Source
	fks    *foreignkey.Registry
	log    *zap.Logger
	job    string
	runID  string

	stop  bool
	state State
	valid bool
	errs  *errorSet
	stats *statistics
}

// Option configures an Analyser.
type Option func(*Analyser)

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyser) { a.log = logging.OrNop(l) }
}

// WithForeignKeys sets the registry used to resolve foreign key
// datapackages.
func WithForeignKeys(r *foreignkey.Registry) Option {
	return func(a *Analyser) { a.fks = r }
}

// WithJob sets the metrics job label.
func WithJob(job string) Option {
	return func(a *Analyser) { a.job = job }
}

// WithRunID tags logs and reports with id.
func WithRunID(id string) Option {
	return func(a *Analyser) { a.runID = id }
}

// New returns an Analyser over an already opened source. The caller keeps
// ownership of src.
func New(s *schema.Schema, src *csv.Source, opts ...Option) (*Analyser, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", schema.ErrSchema)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", csv.ErrIO)
	}
	a := &Analyser{
		schema: s,
		src:    src,
		log:    zap.NewNop(),
		job:    "jsontable",
		errs:   newErrorSet(),
		stats:  newStatistics(),
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With(zap.String("file", src.Name()))
	if a.runID != "" {
		a.log = a.log.With(zap.String("run_id", a.runID))
	}
	return a, nil
}

// Open loads the schema from raw (see schema.Load) and opens the CSV file at
// path. The returned Analyser owns the source; call Close when done.
func Open(ctx context.Context, raw any, path string, opt csv.Options, opts ...Option) (*Analyser, error) {
	s, err := schema.Load(raw)
	if err != nil {
		return nil, err
	}
	src, err := csv.OpenFile(ctx, path, opt)
	if err != nil {
		return nil, err
	}
	a, err := New(s, src, opts...)
	if err != nil {
		src.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the underlying source.
func (a *Analyser) Close() error { return a.src.Close() }

// Schema returns the schema the Analyser validates against.
func (a *Analyser) Schema() *schema.Schema { return a.schema }

// Source returns the underlying source.
func (a *Analyser) Source() *csv.Source { return a.src }

// State returns the last state reached.
func (a *Analyser) State() State { return a.state }

// Validate runs every pass and reports whether the file is valid, that is
// whether no data error was recorded. With stopIfInvalid, the first failing
// pass (or the first error inside it) ends the run. A missing required
// column always ends the run. Errors from previous runs are discarded.
func (a *Analyser) Validate(ctx context.Context, stopIfInvalid bool) (bool, error) {
	a.errs.reset()
	a.stats.reset()
	a.stop = stopIfInvalid
	a.state = StateInit
	a.valid = false
	defer func() { a.state = StateDone }()

	started := time.Now()
	a.log.Debug("validation started", zap.Bool("stop_if_invalid", stopIfInvalid))

	ok, err := a.pass(ctx, "mandatory_columns", a.validateMandatoryColumns)
	if err != nil {
		return false, err
	}
	if !ok {
		return a.finish(started), nil
	}

	ok, err = a.pass(ctx, "unspecified_columns", a.validateUnspecifiedColumns)
	if err != nil {
		return false, err
	}
	a.state = StateColumnsChecked
	if !ok && a.stop {
		return a.finish(started), nil
	}

	steps := []struct {
		name string
		run  func(context.Context) (bool, error)
		next State
	}{
		{"lexical", a.validateLexical, StateLexicallyChecked},
		{"primary_key", a.validatePrimaryKey, StatePrimaryKeyChecked},
		{"foreign_key", a.validateForeignKeys, StateForeignKeyChecked},
	}
	for _, st := range steps {
		ok, err := a.pass(ctx, st.name, st.run)
		if err != nil {
			return false, err
		}
		a.state = st.next
		if !ok && a.stop {
			break
		}
	}
	return a.finish(started), nil
}

// pass runs one validation pass with logging and metrics.
func (a *Analyser) pass(ctx context.Context, name string, fn func(context.Context) (bool, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.log.Debug("pass started", zap.String("pass", name))
	t := time.Now()
	ok, err := fn(ctx)
	metrics.RecordStep(a.job, name, err, time.Since(t))
	if err != nil {
		a.log.Error("pass aborted", zap.String("pass", name), zap.Error(err))
		return false, err
	}
	a.log.Debug("pass finished",
		zap.String("pass", name),
		zap.Bool("ok", ok),
		zap.Duration("took", time.Since(t)),
	)
	return ok, nil
}

func (a *Analyser) finish(started time.Time) bool {
	a.valid = a.errs.empty()
	st := a.stats.snapshot()

	metrics.RecordRow(a.job, "analysed", int64(st.RowsAnalysed))
	metrics.RecordRow(a.job, "with_errors", int64(len(st.RowsWithErrors)))
	for _, t := range a.errs.order {
		metrics.RecordErrors(a.job, categories[t], int64(a.errs.count(t)))
	}

	a.log.Info("validation finished",
		zap.Bool("valid", a.valid),
		zap.Stringer("state", a.state),
		zap.Int("rows_analysed", st.RowsAnalysed),
		zap.Int("rows_with_errors", len(st.RowsWithErrors)),
		zap.Duration("took", time.Since(started)),
	)
	return a.valid
}

// Errors returns the accumulated data errors keyed by rendered type.
func (a *Analyser) Errors() map[string][]string { return a.errs.rendered() }

// ErrorList returns the accumulated data errors in recording order.
func (a *Analyser) ErrorList() ErrorList { return a.errs.list() }

// Statistics returns the row statistics of the last run.
func (a *Analyser) Statistics() Statistics { return a.stats.snapshot() }

// Report is the outcome of a run as printed by the CLI.
type Report struct {
	RunID           string     `json:"run_id,omitempty"`
	File            string     `json:"file"`
	Valid           bool       `json:"valid"`
	Errors          ErrorList  `json:"errors"`
	Statistics      Statistics `json:"statistics"`
	InsertedRecords []any      `json:"inserted_records"`
}

// Report summarises the last run. InsertedRecords is empty; the caller
// fills it after storing the file.
func (a *Analyser) Report() Report {
	return Report{
		RunID:           a.runID,
		File:            a.src.Name(),
		Valid:           a.valid,
		Errors:          a.errs.list(),
		Statistics:      a.stats.snapshot(),
		InsertedRecords: []any{},
	}
}

// scan rewinds the source and calls fn for each data row with its 1-based
// row number until the data ends or fn returns false.
func (a *Analyser) scan(ctx context.Context, fn func(row int, rec []string) (bool, error)) error {
	if err := a.src.Rewind(); err != nil {
		return err
	}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := a.src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(row, rec)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// fail records a data error against row.
func (a *Analyser) fail(row int, template, msg string) {
	a.errs.add(template, msg)
	if row > 0 {
		a.stats.markRow(row)
	}
}

// cellAt returns rec[i], or "" when the row is too short.
func cellAt(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
