// Package schema loads and normalises the JSON Table Schema dialect used to
// describe CSV files: an ordered list of fields with a type, a format and
// optional constraints, plus an optional primary key and foreign keys.
//
// Field names are lowercased on load so that every lookup (header columns,
// primary key parts, foreign key parts) is effectively case-insensitive.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrSchema marks configuration errors in the schema itself. It is never a
// data error: callers should abort the run when they see it.
var ErrSchema = errors.New("schema")

const (
	// DefaultType is used when a field omits "type".
	DefaultType = "string"
	// DefaultFormat is used when a field omits "format".
	DefaultFormat = "default"
	// DefaultDataPackage is the only supported foreign key datapackage.
	DefaultDataPackage = "postgresql"
)

// Constraints holds the optional per-field constraints.
type Constraints struct {
	Required bool   `json:"required,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

// Field describes a single column.
type Field struct {
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        string       `json:"type,omitempty"`
	Format      string       `json:"format,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`

	pattern *regexp.Regexp
}

// Required reports whether constraints.required is true.
func (f *Field) Required() bool {
	return f.Constraints != nil && f.Constraints.Required
}

// Pattern returns the compiled constraints.pattern, or nil when none is set.
func (f *Field) Pattern() *regexp.Regexp { return f.pattern }

// Reference is the target side of a foreign key.
type Reference struct {
	Resource string     `json:"resource"`
	Fields   StringList `json:"fields"`

	// DataPackage is kept raw so that an explicit null (or a non-string value)
	// can be told apart from an omitted attribute.
	DataPackage json.RawMessage `json:"datapackage,omitempty"`
}

// DataPackageName resolves the datapackage attribute. An omitted attribute
// yields DefaultDataPackage. ok is false for values that are not a string
// (null, booleans, numbers).
func (r Reference) DataPackageName() (name string, ok bool) {
	if len(r.DataPackage) == 0 {
		return DefaultDataPackage, true
	}
	if string(r.DataPackage) == "null" {
		return "null", false
	}
	if err := json.Unmarshal(r.DataPackage, &name); err != nil {
		return string(r.DataPackage), false
	}
	return name, true
}

// ForeignKey links local fields to fields of another resource.
type ForeignKey struct {
	Fields    StringList `json:"fields"`
	Reference Reference  `json:"reference"`
}

// Schema is a normalised table schema.
type Schema struct {
	Fields      []Field      `json:"fields"`
	PrimaryKey  StringList   `json:"primaryKey,omitempty"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`

	index map[string]int
}

// StringList decodes either a single JSON string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings: %w", err)
	}
	*l = StringList(many)
	return nil
}

// Load builds a Schema from raw input. Accepted inputs are a JSON string,
// a JSON byte slice, a decoded JSON object (map[string]any) or a Schema
// value. A string that is not valid JSON, or any other input type, fails
// with ErrSchema.
func Load(raw any) (*Schema, error) {
	var s Schema
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, fmt.Errorf("%w: the schema is not a valid JSON string: %v", ErrSchema, err)
		}
	case []byte:
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%w: the schema is not valid JSON: %v", ErrSchema, err)
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("%w: the schema is not valid JSON: %v", ErrSchema, err)
		}
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode schema object: %v", ErrSchema, err)
		}
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("%w: decode schema object: %v", ErrSchema, err)
		}
	case Schema:
		s = v.clone()
	case *Schema:
		if v == nil {
			return nil, fmt.Errorf("%w: invalid schema data type %T", ErrSchema, raw)
		}
		s = v.clone()
	default:
		return nil, fmt.Errorf("%w: invalid schema data type %T", ErrSchema, raw)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and loads a schema from a JSON file on disk.
func LoadFile(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read schema %s: %v", ErrSchema, path, err)
	}
	return Load(b)
}

func (s Schema) clone() Schema {
	out := Schema{
		Fields:      append([]Field(nil), s.Fields...),
		PrimaryKey:  append(StringList(nil), s.PrimaryKey...),
		ForeignKeys: make([]ForeignKey, len(s.ForeignKeys)),
	}
	for i, fk := range s.ForeignKeys {
		out.ForeignKeys[i] = ForeignKey{
			Fields: append(StringList(nil), fk.Fields...),
			Reference: Reference{
				Resource:    fk.Reference.Resource,
				Fields:      append(StringList(nil), fk.Reference.Fields...),
				DataPackage: append(json.RawMessage(nil), fk.Reference.DataPackage...),
			},
		}
	}
	for i, f := range out.Fields {
		if f.Constraints != nil {
			c := *f.Constraints
			out.Fields[i].Constraints = &c
		}
	}
	return out
}

// normalize lowercases names, applies defaults, compiles patterns and checks
// that key definitions only reference declared fields.
func (s *Schema) normalize() error {
	s.index = make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		f.Name = strings.ToLower(f.Name)
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrSchema, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return fmt.Errorf("%w: field %q is defined more than once", ErrSchema, f.Name)
		}
		s.index[f.Name] = i

		if f.Type == "" {
			f.Type = DefaultType
		}
		if f.Format == "" {
			f.Format = DefaultFormat
		}
		if f.Constraints != nil && f.Constraints.Pattern != "" {
			re, err := CompilePattern(f.Constraints.Pattern)
			if err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrSchema, f.Name, err)
			}
			f.pattern = re
		}
	}

	for i, name := range s.PrimaryKey {
		name = strings.ToLower(name)
		if _, ok := s.index[name]; !ok {
			return fmt.Errorf("%w: the primary key %q was not defined in the schema", ErrSchema, name)
		}
		s.PrimaryKey[i] = name
	}

	for i := range s.ForeignKeys {
		fk := &s.ForeignKeys[i]
		if len(fk.Fields) == 0 {
			return fmt.Errorf("%w: foreign key %d has no fields", ErrSchema, i)
		}
		for j, name := range fk.Fields {
			name = strings.ToLower(name)
			if _, ok := s.index[name]; !ok {
				return fmt.Errorf("%w: the foreign key field %q was not defined in the schema", ErrSchema, name)
			}
			fk.Fields[j] = name
		}
	}
	return nil
}

// FieldByName returns the field with the given (lowercase) name.
func (s *Schema) FieldByName(name string) (*Field, bool) {
	i, ok := s.FieldIndexByName(name)
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// FieldIndexByName returns the position of the named field in Fields.
func (s *Schema) FieldIndexByName(name string) (int, bool) {
	if s.index == nil {
		return -1, false
	}
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return -1, false
	}
	return i, true
}

// HasPrimaryKey reports whether a primary key is declared.
func (s *Schema) HasPrimaryKey() bool { return len(s.PrimaryKey) > 0 }

// HasForeignKeys reports whether any foreign key is declared.
func (s *Schema) HasForeignKeys() bool { return len(s.ForeignKeys) > 0 }

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}
