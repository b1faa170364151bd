package analyse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Message type templates. The %d verb, when present, is replaced by the
// number of messages recorded under the type.
const (
	MsgRequiredColumnMissing = "<strong>%d</strong> required column(s) missing:"
	MsgUnspecifiedColumn     = "<strong>%d</strong> unexpected column(s):"
	MsgIncorrectColumnCount  = "There are the wrong number of columns"
	MsgRequiredFieldMissing  = "There are <strong>%d</strong> required fields with missing data:"
	MsgInvalidFormat         = "There are <strong>%d</strong> fields that don't have the correct format:"
	MsgInvalidPattern        = "There are <strong>%d</strong> fields that don't have the correct pattern:"
	MsgDuplicatePrimaryKey   = "There are <strong>%d</strong> rows that have duplicated primary keys:"
	MsgInvalidForeignKey     = "There are <strong>%d</strong> fields that have invalid foreign keys:"
)

// categories names each template for metrics labels.
var categories = map[string]string{
	MsgRequiredColumnMissing: "required_column",
	MsgUnspecifiedColumn:     "unexpected_column",
	MsgIncorrectColumnCount:  "column_count",
	MsgRequiredFieldMissing:  "required_field",
	MsgInvalidFormat:         "format",
	MsgInvalidPattern:        "pattern",
	MsgDuplicatePrimaryKey:   "primary_key",
	MsgInvalidForeignKey:     "foreign_key",
}

// ErrorGroup is one rendered error type with its messages.
type ErrorGroup struct {
	Type     string   `json:"type"`
	Messages []string `json:"messages"`
}

// ErrorList is the ordered set of error groups of a run. It marshals to a
// JSON object keyed by the rendered type, in first-recorded order.
type ErrorList []ErrorGroup

// MarshalJSON implements json.Marshaler.
func (l ErrorList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, g := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(g.Type); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends '\n'
		buf.WriteByte(':')
		msgs := g.Messages
		if msgs == nil {
			msgs = []string{}
		}
		if err := enc.Encode(msgs); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errorSet accumulates data errors of a single run, keyed by template and
// kept in first-recorded order.
type errorSet struct {
	order []string
	m     map[string][]string
}

func newErrorSet() *errorSet {
	return &errorSet{m: map[string][]string{}}
}

func (e *errorSet) reset() {
	e.order = e.order[:0]
	e.m = map[string][]string{}
}

func (e *errorSet) add(template, msg string) {
	if _, ok := e.m[template]; !ok {
		e.order = append(e.order, template)
	}
	e.m[template] = append(e.m[template], msg)
}

func (e *errorSet) empty() bool { return len(e.order) == 0 }

// count returns the number of messages recorded under template.
func (e *errorSet) count(template string) int { return len(e.m[template]) }

func (e *errorSet) list() ErrorList {
	out := make(ErrorList, 0, len(e.order))
	for _, t := range e.order {
		msgs := e.m[t]
		out = append(out, ErrorGroup{
			Type:     render(t, len(msgs)),
			Messages: append([]string(nil), msgs...),
		})
	}
	return out
}

func (e *errorSet) rendered() map[string][]string {
	out := make(map[string][]string, len(e.order))
	for _, g := range e.list() {
		out[g.Type] = g.Messages
	}
	return out
}

func render(template string, n int) string {
	if !strings.Contains(template, "%d") {
		return template
	}
	return fmt.Sprintf(template, n)
}
