package format

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ, format, value string
		want               bool
	}{
		{"any", "", "whatever", true},
		{"array", "", "[1,2]", false},
		{"array", "", "", true},
		{"null", "", "", true},
		{"null", "", `\N`, true},
		{"null", "", "x", false},
		{"integer", "", "42", true},
		{"integer", "", "-7", true},
		{"integer", "", "4.2", false},
		{"integer", "", "abc", false},
		{"integer", "default", "", true},
		{"number", "", "1.5e3", true},
		{"number", "", "-0.25", true},
		{"number", "", "abc", false},
		{"number", "", "NaN", false},
		{"number", "", "Inf", false},
		{"number", "", "0x10", false},
		{"number", "currency", "$1,000.00", true},
		{"number", "currency", "1000", true},
		{"number", "currency", "$", true},
		{"number", "currency", "£12.5", false},
		{"number", "currency", "1,00", false},
		{"string", "", "anything at all", true},
		{"string", "binary", "\x00\x01", true},
		{"string", "email", "test@example.com", true},
		{"string", "email", "not-an-email", false},
		{"string", "uri", "www.example.com", true},
		{"string", "uri", "https://example.com/a?b=c", true},
		{"string", "uri", "ht tp://x", false},
		{"STRING", "", "upper-case type names resolve", true},
		{"datetime", "", "2024-01-31T10:20:30Z", true},
		{"datetime", "", "2024-01-31 10:20:30", true},
		{"date", "", "2024-01-31", true},
		{"time", "", "10:20:30", true},
		{"date", "", "2024-1-31", false},
		{"date", "", "2024-02-30", false},
		{"date", "", "31/01/2024", false},
		{"date", "d/m/Y", "31/01/2024", true},
		{"date", "d/m/Y", "1/1/2024", false},
		{"date", "j/n/Y", "1/1/2024", true},
		{"datetime", "Y-m-d H:i", "2024-01-31 09:05", true},
		{"datetime", `Y-m-d\TH:i`, "2024-01-31T09:05", true},
		{"date", "%Y-%m-%d", "2024-01-31", true},
		{"date", "%Y-%m-%d", "2024-1-31", false},
	}

	for _, tc := range tests {
		got, err := Check(tc.typ, tc.format, tc.value)
		if err != nil {
			t.Errorf("Check(%q, %q, %q): unexpected error %v", tc.typ, tc.format, tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Check(%q, %q, %q) = %v, want %v", tc.typ, tc.format, tc.value, got, tc.want)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	t.Parallel()

	cases := []struct{ typ, format string }{
		{"geopoint", ""},
		{"integer", "currency"},
		{"string", "hostname"},
		{"boolean", "yesno"},
		{"datetime", "Q-Y"},
		{"date", "Y-m-d 12"},
	}
	for _, c := range cases {
		if _, err := Resolve(c.typ, c.format); !errors.Is(err, ErrValidatorNotFound) {
			t.Errorf("Resolve(%q, %q) err = %v, want ErrValidatorNotFound", c.typ, c.format, err)
		}
	}
}

// TestBoolean checks the accepted set is exactly the eight spellings, in
// any letter case.
func TestBoolean(t *testing.T) {
	t.Parallel()

	v, err := Lookup("boolean")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	for _, s := range []string{"1", "0", "on", "off", "yes", "no", "true", "false"} {
		for _, variant := range []string{s, strings.ToUpper(s), strings.ToUpper(s[:1]) + s[1:]} {
			ok, _ := v.Validate(variant, DefaultFormat)
			if !ok {
				t.Errorf("boolean %q rejected", variant)
			}
		}
	}
	for _, s := range []string{"2", "", "not_a_boolean", "y", "n", "t", "-1", " true"} {
		if ok, _ := v.Validate(s, DefaultFormat); ok {
			t.Errorf("boolean %q accepted", s)
		}
	}

	if b, ok := ParseBoolean("Yes"); !ok || !b {
		t.Errorf("ParseBoolean(Yes) = %v,%v", b, ok)
	}
	if b, ok := ParseBoolean("OFF"); !ok || b {
		t.Errorf("ParseBoolean(OFF) = %v,%v", b, ok)
	}
}

// TestDate_RoundTrip formats a known instant with each pattern and expects
// the result to validate under that same pattern.
func TestDate_RoundTrip(t *testing.T) {
	t.Parallel()

	instants := []time.Time{
		time.Date(2023, 7, 4, 13, 5, 9, 0, time.UTC),
		time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
	}
	letterFormats := []string{"Y-m-d", "d/m/Y H:i:s", "D, d M Y", "F j, Y g:i a", "y.n.j"}
	strftimeFormats := []string{"%Y-%m-%d", "%d.%m.%Y %H:%M", "%Y-%m-%dT%H:%M:%S"}

	for _, at := range instants {
		for _, f := range letterFormats {
			layout, err := letterLayout(f)
			if err != nil {
				t.Fatalf("letterLayout(%q): %v", f, err)
			}
			checkRoundTrip(t, f, at.Format(layout))
		}
		for _, f := range strftimeFormats {
			checkRoundTrip(t, f, at.Format(mustStrftimeLayout(t, f)))
		}
		checkRoundTrip(t, DefaultFormat, at.Format("2006-01-02"))
		checkRoundTrip(t, DefaultFormat, at.Format("2006-01-02 15:04:05"))
	}
}

func checkRoundTrip(t *testing.T, format, value string) {
	t.Helper()
	ok, err := Check("date", format, value)
	if err != nil || !ok {
		t.Errorf("Check(date, %q, %q) = %v, %v; want valid", format, value, ok, err)
	}
}

func mustStrftimeLayout(t *testing.T, f string) string {
	t.Helper()
	r := strings.NewReplacer("%Y", "2006", "%m", "01", "%d", "02", "%H", "15", "%M", "04", "%S", "05")
	return r.Replace(f)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("d/m/Y", "04/07/2023")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if want := time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseDate = %v, want %v", got, want)
	}

	if _, err := ParseDate("d/m/Y", "2023-07-04"); !errors.Is(err, ErrDate) {
		t.Fatalf("mismatch err = %v, want ErrDate", err)
	}
	if _, err := ParseDate("Q", "x"); !errors.Is(err, ErrValidatorNotFound) {
		t.Fatalf("bad format err = %v, want ErrValidatorNotFound", err)
	}
}
