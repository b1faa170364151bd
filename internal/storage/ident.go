package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CheckIdent verifies name is a plain, optionally schema-qualified, SQL
// identifier that can be spliced into a statement unquoted.
func CheckIdent(name string) error {
	if !identRE.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}

// QuoteIdent quotes a single identifier segment.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuoteFQN quotes a possibly schema-qualified name like "public.people" as
// "public"."people".
func QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// BuildInsert renders a single-row INSERT ... RETURNING statement using the
// backend's placeholder style.
func BuildInsert(table string, columns []string, returning string, placeholder func(int) string) string {
	cols := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = QuoteIdent(c)
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		QuoteFQN(table), strings.Join(cols, ", "), strings.Join(params, ", "), QuoteIdent(returning))
}
