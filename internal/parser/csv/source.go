// Package csv exposes a delimited text file as a restartable sequence of
// rows: a lowercased header followed by data rows, with the ability to seek
// back to the first data row between validation passes.
//
// Input bytes are decoded to UTF-8 on the fly (a leading BOM is honoured and
// stripped; other encodings are selected by WHATWG label such as
// "windows-1250"), so the whole file is never buffered.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"jsontable/internal/datasource"
	"jsontable/internal/datasource/file"
)

// ErrIO marks failures to open or read the tabular input.
var ErrIO = errors.New("tabular source")

// Options configures the reader. The zero value reads comma-separated UTF-8.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// Encoding is a WHATWG encoding label ("utf-8", "windows-1250",
	// "iso-8859-2", ...). Empty means UTF-8.
	Encoding string

	// TrimSpace trims leading/trailing white space from header names and
	// cell values.
	TrimSpace bool
}

// Source is a restartable CSV reader. It is not safe for concurrent use;
// each validation run owns its own Source.
type Source struct {
	name string
	rc   io.ReadSeekCloser
	opt  Options
	enc  encoding.Encoding

	cr     *csv.Reader
	header []string
}

// Open opens src and reads its header row.
func Open(ctx context.Context, src datasource.Source, opt Options) (*Source, error) {
	enc, err := resolveEncoding(opt.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	s := &Source{name: src.Name(), rc: rc, opt: opt, enc: enc}

	header, err := s.reset()
	if err != nil {
		rc.Close()
		return nil, err
	}
	s.header = make([]string, len(header))
	for i, h := range header {
		s.header[i] = strings.ToLower(s.clean(h))
	}
	return s, nil
}

// OpenFile is Open over a local file path.
func OpenFile(ctx context.Context, path string, opt Options) (*Source, error) {
	return Open(ctx, file.NewLocal(path), opt)
}

// Name identifies the underlying input.
func (s *Source) Name() string { return s.name }

// HeaderColumns returns the lowercased header names in file order. The
// returned slice is a copy.
func (s *Source) HeaderColumns() []string {
	return append([]string(nil), s.header...)
}

// Position returns the header position of the named column.
func (s *Source) Position(name string) (int, bool) {
	name = strings.ToLower(name)
	for i, h := range s.header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Rewind positions the cursor on the first data row. Every full pass over
// the data must start with a Rewind; the source never rewinds on its own.
func (s *Source) Rewind() error {
	_, err := s.reset()
	return err
}

// Next returns the next data row, or io.EOF once the data is exhausted.
// Empty lines are skipped. Rows keep their physical width; callers decide
// what a short or long row means.
func (s *Source) Next() ([]string, error) {
	rec, err := s.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, s.name, err)
	}
	if s.opt.TrimSpace {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return rec, nil
}

// Close releases the underlying stream.
func (s *Source) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

// reset seeks to the start of the stream, rebuilds the decoding chain and
// consumes the header row, which it returns. An empty input yields an empty
// header.
func (s *Source) reset() ([]string, error) {
	if s.rc == nil {
		return nil, fmt.Errorf("%w: %s is closed", ErrIO, s.name)
	}
	if _, err := s.rc.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek %s: %v", ErrIO, s.name, err)
	}

	r := transform.NewReader(s.rc, unicode.BOMOverride(s.enc.NewDecoder()))
	cr := csv.NewReader(r)
	if s.opt.Comma != 0 {
		cr.Comma = s.opt.Comma
	}
	// Width is checked by the lexical pass, not by the reader.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	s.cr = cr

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header of %s: %v", ErrIO, s.name, err)
	}
	return header, nil
}

func (s *Source) clean(v string) string {
	if s.opt.TrimSpace {
		return strings.TrimSpace(v)
	}
	return v
}

// resolveEncoding maps a WHATWG label onto an encoding. Empty means UTF-8.
func resolveEncoding(label string) (encoding.Encoding, error) {
	if strings.TrimSpace(label) == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}
