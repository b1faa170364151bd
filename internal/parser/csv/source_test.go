package csv

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeFile writes raw bytes so BOMs and legacy encodings survive as-is.
func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func drain(t *testing.T, s *Source) [][]string {
	t.Helper()
	var rows [][]string
	for {
		row, err := s.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		rows = append(rows, row)
	}
}

// TestSource_HeaderAndRows checks header lowercasing, BOM stripping, blank
// line skipping and that short rows keep their physical width.
func TestSource_HeaderAndRows(t *testing.T) {
	data := "\xEF\xBB\xBFFIRST_NAME,Email_Address,WEBSITE\n" +
		"john,test@example.com,www.example.com\n" +
		"\n" +
		"bob,bob@example.com\n"
	s, err := OpenFile(context.Background(), writeFile(t, []byte(data)), Options{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	if got, want := s.HeaderColumns(), []string{"first_name", "email_address", "website"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HeaderColumns = %q, want %q", got, want)
	}

	want := [][]string{
		{"john", "test@example.com", "www.example.com"},
		{"bob", "bob@example.com"},
	}
	if got := drain(t, s); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %q, want %q", got, want)
	}

	// No automatic rewind: the cursor stays at EOF.
	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("Next after EOF = %v, want io.EOF", err)
	}

	if err := s.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if got := drain(t, s); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows after rewind = %q, want %q", got, want)
	}
}

func TestSource_Position(t *testing.T) {
	s, err := OpenFile(context.Background(), writeFile(t, []byte("a,B,c\n1,2,3\n")), Options{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	if i, ok := s.Position("b"); !ok || i != 1 {
		t.Fatalf("Position(b) = %d,%v", i, ok)
	}
	if _, ok := s.Position("zz"); ok {
		t.Fatalf("Position(zz) should not be found")
	}
}

// TestSource_Options covers a custom delimiter, trimming and a legacy
// single-byte encoding.
func TestSource_Options(t *testing.T) {
	// "Příjmení;Obec" in windows-1250, then one data row.
	data := []byte{'P', 0xF8, 0xED, 'j', 'm', 'e', 'n', 0xED, ';', 'O', 'b', 'e', 'c', '\n',
		' ', 'N', 'o', 'v', 0xE1, 'k', ' ', ';', 'B', 'r', 'n', 'o', '\n'}

	s, err := OpenFile(context.Background(), writeFile(t, data), Options{
		Comma:     ';',
		Encoding:  "windows-1250",
		TrimSpace: true,
	})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	if got, want := s.HeaderColumns(), []string{"příjmení", "obec"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HeaderColumns = %q, want %q", got, want)
	}
	if got, want := drain(t, s), [][]string{{"Novák", "Brno"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %q, want %q", got, want)
	}
}

func TestSource_EmptyFile(t *testing.T) {
	s, err := OpenFile(context.Background(), writeFile(t, nil), Options{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	if len(s.HeaderColumns()) != 0 {
		t.Fatalf("expected empty header, got %q", s.HeaderColumns())
	}
	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("Next = %v, want io.EOF", err)
	}
}

func TestSource_OpenErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := OpenFile(ctx, filepath.Join(t.TempDir(), "missing.csv"), Options{}); !errors.Is(err, ErrIO) {
		t.Fatalf("missing file err = %v, want ErrIO", err)
	}
	if _, err := OpenFile(ctx, writeFile(t, []byte("a\n")), Options{Encoding: "no-such-encoding"}); !errors.Is(err, ErrIO) {
		t.Fatalf("bad encoding err = %v, want ErrIO", err)
	}
}

func TestSource_RewindAfterClose(t *testing.T) {
	s, err := OpenFile(context.Background(), writeFile(t, []byte("a\n1\n")), Options{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Rewind(); !errors.Is(err, ErrIO) {
		t.Fatalf("Rewind after Close = %v, want ErrIO", err)
	}
}
