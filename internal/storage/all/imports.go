// Package all wires the built-in storage backends into the storage factory.
//
// Importing it for side effects makes the following kinds available to
// storage.New and storage.EnsureTable:
//
//   - "postgres" (jsontable/internal/storage/postgres)
//   - "sqlite"   (jsontable/internal/storage/sqlite)
//
// Typical usage in a main package:
//
//	import _ "jsontable/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
package all

import (
	_ "jsontable/internal/storage/postgres"
	_ "jsontable/internal/storage/sqlite"
)
