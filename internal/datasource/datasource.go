// Package datasource defines where tabular input bytes come from.
//
// The validator scans its input several times (lexical, primary key and one
// pass per foreign key), so sources must hand back a seekable stream.
package datasource

import (
	"context"
	"io"
)

// Source opens a seekable stream over the input.
type Source interface {
	Open(ctx context.Context) (io.ReadSeekCloser, error)
	// Name identifies the source in logs and reports.
	Name() string
}
