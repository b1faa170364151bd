package sqlite

import (
	"jsontable/internal/ddl"
	"jsontable/internal/schema"
)

// Dialect maps schema fields onto SQLite column affinities. A single
// INTEGER primary key column aliases the rowid and is filled automatically.
var Dialect = ddl.Dialect{
	MapType: MapType,
	KeyType: "INTEGER",
	RowType: "INTEGER",
}

// MapType returns the SQLite type for a schema field. Booleans are stored
// as INTEGER (0/1) and dates as ISO-8601 TEXT.
func MapType(f schema.Field) string {
	switch f.Type {
	case "integer", "boolean":
		return "INTEGER"
	case "number":
		if f.Format == "currency" {
			return "TEXT"
		}
		return "REAL"
	}
	return "TEXT"
}
