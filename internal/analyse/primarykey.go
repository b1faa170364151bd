package analyse

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"jsontable/internal/schema"
)

// keySeparator joins the parts of a composite key.
const keySeparator = ", "

type seenKey struct {
	key string
	row int
}

// keyIndex maps composite keys onto the row they were first seen on.
type keyIndex struct {
	buckets map[uint64][]seenKey
}

func newKeyIndex() *keyIndex {
	return &keyIndex{buckets: map[uint64][]seenKey{}}
}

// firstSeen returns the row key was first seen on. When key is new it is
// recorded against row and found is false.
func (k *keyIndex) firstSeen(key string, row int) (first int, found bool) {
	h := xxh3.HashString(key)
	for _, s := range k.buckets[h] {
		if s.key == key {
			return s.row, true
		}
	}
	k.buckets[h] = append(k.buckets[h], seenKey{key: key, row: row})
	return 0, false
}

// positions resolves header positions for names.
func (a *Analyser) positions(names []string) ([]int, []string) {
	pos := make([]int, 0, len(names))
	var missing []string
	for _, n := range names {
		p, ok := a.src.Position(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		pos = append(pos, p)
	}
	return pos, missing
}

func joinCells(rec []string, pos []int) string {
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = cellAt(rec, p)
	}
	return strings.Join(parts, keySeparator)
}

// validatePrimaryKey reports rows whose primary key values repeat those of
// an earlier row.
func (a *Analyser) validatePrimaryKey(ctx context.Context) (bool, error) {
	if !a.schema.HasPrimaryKey() {
		return true, nil
	}
	pk := []string(a.schema.PrimaryKey)
	pos, missing := a.positions(pk)
	if len(missing) > 0 {
		return false, fmt.Errorf("%w: the primary key %q was not in the file; primary key columns should be set as required",
			schema.ErrSchema, missing[0])
	}

	cols := strings.Join(pk, keySeparator)
	idx := newKeyIndex()
	ok := true
	err := a.scan(ctx, func(row int, rec []string) (bool, error) {
		key := joinCells(rec, pos)
		first, dup := idx.firstSeen(key, row)
		if !dup {
			return true, nil
		}
		a.fail(row, MsgDuplicatePrimaryKey,
			fmt.Sprintf(`The data in columns "%s" should be unique, but rows %d & %d have the same values of "%s"`,
				cols, first, row, key))
		ok = false
		return !a.stop, nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}
