// Package ddl renders CREATE TABLE statements for the loader's destination
// table. The model is dialect-neutral; backends supply the type mapping and
// the SQL type of a generated key column.
package ddl

import (
	"context"
	"fmt"
	"strings"

	"jsontable/internal/schema"
	"jsontable/internal/storage"
)

// RowColumn holds the CSV row number of each loaded record.
const RowColumn = "csv_row"

// Dialect is the backend-specific part of table generation.
type Dialect struct {
	// MapType returns the column type for a schema field.
	MapType func(f schema.Field) string
	// KeyType is the SQL type of a generated primary key column, e.g.
	// "BIGINT GENERATED BY DEFAULT AS IDENTITY".
	KeyType string
	// RowType is the SQL type of the csv_row column.
	RowType string
}

// FromSchema derives the destination table from a schema. Columns follow
// schema field order and are followed by csv_row. When pk names a schema
// field that field becomes the primary key; otherwise a generated key column
// named pk is prepended.
func FromSchema(spec storage.TableSpec, d Dialect) (TableDef, error) {
	if strings.TrimSpace(spec.Table) == "" {
		return TableDef{}, fmt.Errorf("ddl: table name must not be empty")
	}
	if spec.Schema == nil || len(spec.Schema.Fields) == 0 {
		return TableDef{}, fmt.Errorf("ddl: schema for %s has no fields", spec.Table)
	}
	pk := strings.ToLower(strings.TrimSpace(spec.PrimaryKey))
	if pk == "" {
		pk = "id"
	}

	cols := make([]ColumnDef, 0, len(spec.Schema.Fields)+2)
	if _, ok := spec.Schema.FieldByName(pk); !ok {
		cols = append(cols, ColumnDef{Name: pk, SQLType: d.KeyType, PrimaryKey: true})
	}
	for _, f := range spec.Schema.Fields {
		cols = append(cols, ColumnDef{
			Name:       f.Name,
			SQLType:    d.MapType(f),
			Nullable:   !f.Required() && f.Name != pk,
			PrimaryKey: f.Name == pk,
		})
	}
	cols = append(cols, ColumnDef{Name: RowColumn, SQLType: d.RowType})

	return TableDef{FQN: spec.Table, Columns: cols}, nil
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col" TYPE [NOT NULL] [DEFAULT expr],
//	  ...,
//	  PRIMARY KEY ("pk")
//	);
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(storage.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, storage.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		storage.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// EnsureTable builds the table for spec under dialect d and executes the DDL.
func EnsureTable(ctx context.Context, repo storage.Repository, spec storage.TableSpec, d Dialect) error {
	def, err := FromSchema(spec, d)
	if err != nil {
		return err
	}
	stmt, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Table, err)
	}
	return nil
}
