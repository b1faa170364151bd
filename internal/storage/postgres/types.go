package postgres

import (
	"jsontable/internal/ddl"
	"jsontable/internal/schema"
)

// Dialect maps schema fields onto Postgres column types.
var Dialect = ddl.Dialect{
	MapType: MapType,
	KeyType: "BIGINT GENERATED BY DEFAULT AS IDENTITY",
	RowType: "INTEGER",
}

// MapType returns the Postgres type for a schema field.
//
//	integer            -> BIGINT
//	number             -> NUMERIC (TEXT for currency, which keeps its symbols)
//	boolean            -> BOOLEAN
//	date with a format -> DATE (the loader converts it to ISO)
//	everything else    -> TEXT
func MapType(f schema.Field) string {
	switch f.Type {
	case "integer":
		return "BIGINT"
	case "number":
		if f.Format == "currency" {
			return "TEXT"
		}
		return "NUMERIC"
	case "boolean":
		return "BOOLEAN"
	case "date":
		if f.Format != "" && f.Format != schema.DefaultFormat {
			return "DATE"
		}
	}
	return "TEXT"
}
