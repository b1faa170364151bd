// Package store loads a validated CSV file into a relational table.
//
// Each header column is written to the column of the same name, followed by
// csv_row, the 1-based row number of the record in the file. All rows of a
// Store call are inserted in one transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jsontable/internal/ddl"
	"jsontable/internal/logging"
	"jsontable/internal/metrics"
	"jsontable/internal/parser/csv"
	"jsontable/internal/schema"
	"jsontable/internal/storage"
	"jsontable/internal/validate/format"
)

// DefaultPrimaryKey is the key column read back after each insert when the
// caller does not name one.
const DefaultPrimaryKey = "id"

// isoDate is the layout dates are stored with.
const isoDate = "2006-01-02"

// ErrInsert marks a failed load. The concrete error is an *InsertError.
var ErrInsert = errors.New("insert")

// InsertError reports the CSV row a load failed on.
type InsertError struct {
	Row int // 1-based CSV data row
	Err error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("%v: there was an error inserting row %d: %v", ErrInsert, e.Row, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInsert) hold for every InsertError.
func (e *InsertError) Is(target error) bool { return target == ErrInsert }

// Store writes the rows of one source into a repository.
type Store struct {
	repo   storage.Repository
	schema *schema.Schema
	src    *csv.Source
	log    *zap.Logger
	job    string

	inserted []any
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l) }
}

// WithJob sets the metrics job label.
func WithJob(job string) Option {
	return func(s *Store) { s.job = job }
}

// New returns a Store. The source is rewound by every Store call; the
// caller keeps ownership of it.
func New(repo storage.Repository, s *schema.Schema, src *csv.Source, opts ...Option) *Store {
	st := &Store{
		repo:   repo,
		schema: s,
		src:    src,
		log:    zap.NewNop(),
		job:    "jsontable",
	}
	for _, o := range opts {
		o(st)
	}
	return st
}

// InsertedRecords returns the keys of the last successful Store call.
func (s *Store) InsertedRecords() []any {
	return append([]any(nil), s.inserted...)
}

// Store inserts every data row into table and returns the value of the
// primaryKey column of each inserted record, in file order. An empty
// primaryKey means DefaultPrimaryKey. On failure nothing is inserted and
// the error is an *InsertError.
func (s *Store) Store(ctx context.Context, table, primaryKey string) (keys []any, err error) {
	started := time.Now()
	defer func() { metrics.RecordStep(s.job, "store", err, time.Since(started)) }()

	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	if err := storage.CheckIdent(table); err != nil {
		return nil, &InsertError{Err: fmt.Errorf("table: %w", err)}
	}
	if err := storage.CheckIdent(primaryKey); err != nil {
		return nil, &InsertError{Err: fmt.Errorf("primary key: %w", err)}
	}

	header := s.src.HeaderColumns()
	fields := make([]*schema.Field, len(header))
	for i, h := range header {
		if f, ok := s.schema.FieldByName(h); ok {
			fields[i] = f
		}
	}
	columns := append(header, ddl.RowColumn)

	if err := s.src.Rewind(); err != nil {
		return nil, err
	}
	var rows [][]any
	for row := 1; ; row++ {
		rec, err := s.src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]any, len(columns))
		for i, f := range fields {
			var v string
			if i < len(rec) {
				v = rec[i]
			}
			vals[i] = normalise(f, v)
		}
		vals[len(header)] = int64(row)
		rows = append(rows, vals)
	}

	s.log.Debug("inserting rows",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Strings("columns", columns),
	)
	keys, err = s.repo.InsertReturning(ctx, table, columns, rows, primaryKey)
	if err != nil {
		ie := &InsertError{Row: 1, Err: err}
		var re *storage.RowError
		if errors.As(err, &re) {
			ie.Row = re.Index + 1
			ie.Err = re.Err
		}
		s.log.Error("insert failed", zap.String("table", table), zap.Int("row", ie.Row), zap.Error(ie.Err))
		return nil, ie
	}

	s.inserted = keys
	metrics.RecordRow(s.job, "inserted", int64(len(keys)))
	s.log.Info("rows inserted",
		zap.String("table", table),
		zap.Int("rows", len(keys)),
		zap.Duration("took", time.Since(started)),
	)
	return keys, nil
}

// normalise converts a cell into the value bound for its column. Empty
// cells and \N are NULL. Values that do not parse as their declared type
// are NULL as well.
func normalise(f *schema.Field, v string) any {
	if v == "" || v == `\N` {
		return nil
	}
	if f == nil {
		return v
	}
	switch format.Type(strings.ToLower(f.Type)) {
	case format.TypeDate:
		if f.Format == "" || f.Format == format.DefaultFormat {
			return v
		}
		t, err := format.ParseDate(f.Format, v)
		if err != nil {
			return nil
		}
		return t.Format(isoDate)
	case format.TypeBoolean:
		b, ok := format.ParseBoolean(v)
		if !ok {
			return nil
		}
		return b
	case format.TypeInteger:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		return n
	}
	return v
}
