// Package format holds the per-type lexical validators applied to every CSV
// cell. Validators are resolved through a static registry keyed by the
// schema field type; each one understands a small set of named formats.
package format

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidatorNotFound is returned for an unknown field type or an unknown
// format of a known type.
var ErrValidatorNotFound = errors.New("validator not found")

// DefaultFormat is the format name every validator accepts.
const DefaultFormat = "default"

// Type tags a schema field type.
type Type string

const (
	TypeAny      Type = "any"
	TypeArray    Type = "array"
	TypeBoolean  Type = "boolean"
	TypeDate     Type = "date"
	TypeDatetime Type = "datetime"
	TypeInteger  Type = "integer"
	TypeNull     Type = "null"
	TypeNumber   Type = "number"
	TypeString   Type = "string"
	TypeTime     Type = "time"
)

// Validator checks a single value against one of its formats.
type Validator interface {
	// Validate reports whether value is lexically valid under format.
	Validate(value, format string) (bool, error)
	// Supports returns ErrValidatorNotFound if format is not understood.
	Supports(format string) error
}

var registry = map[Type]Validator{
	TypeAny:      anyValidator{},
	TypeArray:    arrayValidator{},
	TypeBoolean:  booleanValidator{},
	TypeDate:     datetimeValidator{},
	TypeDatetime: datetimeValidator{},
	TypeInteger:  integerValidator{},
	TypeNull:     nullValidator{},
	TypeNumber:   numberValidator{},
	TypeString:   newStringValidator(),
	TypeTime:     datetimeValidator{},
}

// Lookup returns the validator registered for the field type.
func Lookup(typ string) (Validator, error) {
	v, ok := registry[Type(strings.ToLower(typ))]
	if !ok {
		return nil, fmt.Errorf("%w: no validator for type %q", ErrValidatorNotFound, typ)
	}
	return v, nil
}

// Resolve looks up the type validator and checks that it supports format.
func Resolve(typ, format string) (Validator, error) {
	v, err := Lookup(typ)
	if err != nil {
		return nil, err
	}
	if err := v.Supports(normalizeFormat(format)); err != nil {
		return nil, err
	}
	return v, nil
}

// Check validates value against typ and format. An empty value is always
// valid except for the null type, which decides for itself.
func Check(typ, format, value string) (bool, error) {
	v, err := Resolve(typ, format)
	if err != nil {
		return false, err
	}
	return Apply(v, typ, format, value)
}

// Apply runs an already resolved validator with the empty-value rule.
func Apply(v Validator, typ, format, value string) (bool, error) {
	if value == "" && Type(strings.ToLower(typ)) != TypeNull {
		return true, nil
	}
	return v.Validate(value, normalizeFormat(format))
}

func normalizeFormat(f string) string {
	if f == "" {
		return DefaultFormat
	}
	return f
}

func unknownFormat(typ Type, format string) error {
	return fmt.Errorf("%w: %s has no format %q", ErrValidatorNotFound, typ, format)
}
