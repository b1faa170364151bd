package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// ErrDate is returned by ParseDate when the value does not match.
var ErrDate = errors.New("invalid date")

// Layouts tried, in order, for the default datetime format.
var defaultLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

var isoZuluRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

// datetimeValidator serves the date, time and datetime types. A non-default
// format is a date pattern: strftime when it contains '%', otherwise the
// classic letter pattern ("Y-m-d", "d/m/Y H:i").
type datetimeValidator struct{}

func (datetimeValidator) Supports(format string) error {
	if format == DefaultFormat {
		return nil
	}
	if isStrftime(format) {
		if _, err := strftime.Layout(format); err != nil {
			return fmt.Errorf("%w: date format %q: %v", ErrValidatorNotFound, format, err)
		}
		return nil
	}
	_, err := letterLayout(format)
	return err
}

func (datetimeValidator) Validate(value, format string) (bool, error) {
	_, err := ParseDate(format, value)
	if errors.Is(err, ErrValidatorNotFound) {
		return false, err
	}
	return err == nil, nil
}

// ParseDate parses value under format. The value only matches when
// formatting the parsed time again gives back the exact input, so partial
// or normalised matches ("2024-02-30") are rejected.
func ParseDate(format, value string) (time.Time, error) {
	format = normalizeFormat(format)
	switch {
	case format == DefaultFormat:
		for i, layout := range defaultLayouts {
			if i == 0 && !isoZuluRE.MatchString(value) {
				continue
			}
			if t, ok := roundTrip(layout, value); ok {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrDate, value)

	case isStrftime(format):
		t, err := strftime.Parse(format, value)
		if err != nil || strftime.Format(format, t) != value {
			return time.Time{}, fmt.Errorf("%w: %q does not match %s", ErrDate, value, format)
		}
		return t, nil
	}

	layout, err := letterLayout(format)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := roundTrip(layout, value)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q does not match %s", ErrDate, value, format)
	}
	return t, nil
}

func roundTrip(layout, value string) (time.Time, bool) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, t.Format(layout) == value
}

func isStrftime(format string) bool { return strings.Contains(format, "%") }

var letters = map[rune]string{
	'd': "02",
	'j': "2",
	'm': "01",
	'n': "1",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
	'D': "Mon",
	'l': "Monday",
	'M': "Jan",
	'F': "January",
	'T': "MST",
	'P': "-07:00",
	'O': "-0700",
}

// letterLayout translates a letter date pattern into a time layout.
// Backslash escapes the next character.
func letterLayout(format string) (string, error) {
	var b strings.Builder
	rs := []rune(format)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\':
			if i+1 < len(rs) {
				i++
				b.WriteRune(rs[i])
			}
		case r >= '0' && r <= '9':
			// Digits are layout tokens and cannot appear as literals.
			return "", fmt.Errorf("%w: date format %q has a literal digit", ErrValidatorNotFound, format)
		case isLetter(r):
			l, ok := letters[r]
			if !ok {
				return "", fmt.Errorf("%w: date format %q uses unsupported %q", ErrValidatorNotFound, format, string(r))
			}
			b.WriteString(l)
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
