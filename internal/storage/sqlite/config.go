// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:jsontable.db?cache=shared"
	//   ":memory:"
	DSN string

	// MaxConns caps open connections. In-memory databases are always
	// limited to one connection so every query sees the same database.
	MaxConns int32
}
