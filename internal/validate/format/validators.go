package format

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type anyValidator struct{}

func (anyValidator) Supports(format string) error {
	if format != DefaultFormat {
		return unknownFormat(TypeAny, format)
	}
	return nil
}

func (anyValidator) Validate(string, string) (bool, error) { return true, nil }

// arrayValidator accepts no lexical form; arrays cannot be expressed in a
// single CSV cell.
type arrayValidator struct{}

func (arrayValidator) Supports(format string) error {
	if format != DefaultFormat {
		return unknownFormat(TypeArray, format)
	}
	return nil
}

func (arrayValidator) Validate(string, string) (bool, error) { return false, nil }

type nullValidator struct{}

func (nullValidator) Supports(format string) error {
	if format != DefaultFormat {
		return unknownFormat(TypeNull, format)
	}
	return nil
}

func (nullValidator) Validate(value, _ string) (bool, error) {
	return IsNull(value), nil
}

// IsNull reports whether value is one of the textual NULL markers.
func IsNull(value string) bool {
	return value == "" || value == `\N`
}

type booleanValidator struct{}

func (booleanValidator) Supports(format string) error {
	if format != DefaultFormat {
		return unknownFormat(TypeBoolean, format)
	}
	return nil
}

func (booleanValidator) Validate(value, _ string) (bool, error) {
	_, ok := ParseBoolean(value)
	return ok, nil
}

// ParseBoolean maps the accepted boolean spellings onto a bool. ok is false
// for anything outside the set.
func ParseBoolean(value string) (b bool, ok bool) {
	switch strings.ToLower(value) {
	case "1", "on", "yes", "true":
		return true, true
	case "0", "off", "no", "false":
		return false, true
	}
	return false, false
}

type integerValidator struct{}

func (integerValidator) Supports(format string) error {
	if format != DefaultFormat {
		return unknownFormat(TypeInteger, format)
	}
	return nil
}

func (integerValidator) Validate(value, _ string) (bool, error) {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil, nil
}

const formatCurrency = "currency"

var currencyRE = regexp.MustCompile(`^\d{1,3}(?:,?\d{3})*(?:\.\d{2})?$`)

type numberValidator struct{}

func (numberValidator) Supports(format string) error {
	switch format {
	case DefaultFormat, formatCurrency:
		return nil
	}
	return unknownFormat(TypeNumber, format)
}

func (numberValidator) Validate(value, format string) (bool, error) {
	if format == formatCurrency {
		// Leading currency symbols are ignored.
		rest := strings.TrimLeftFunc(value, func(r rune) bool { return r < '0' || r > '9' })
		if rest == "" {
			return true, nil
		}
		return currencyRE.MatchString(rest), nil
	}

	if strings.ContainsAny(value, "xX_") {
		return false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, nil
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f), nil
}

const (
	formatEmail  = "email"
	formatURI    = "uri"
	formatBinary = "binary"
)

type stringValidator struct {
	v *validator.Validate
}

func newStringValidator() stringValidator {
	return stringValidator{v: validator.New()}
}

func (stringValidator) Supports(format string) error {
	switch format {
	case DefaultFormat, formatEmail, formatURI, formatBinary:
		return nil
	}
	return unknownFormat(TypeString, format)
}

func (s stringValidator) Validate(value, format string) (bool, error) {
	switch format {
	case formatEmail:
		return s.v.Var(value, "email") == nil, nil
	case formatURI:
		if u, err := url.Parse(value); err != nil || u.Scheme == "" {
			value = "http://" + value
		}
		return s.v.Var(value, "url") == nil, nil
	}
	return true, nil
}
