package analyse

import (
	"reflect"
	"testing"

	"github.com/zeebo/xxh3"
)

func TestStatistics_Snapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     []int
		analysed int
		want     Statistics
	}{
		{"nothing analysed", nil, 0, Statistics{RowsWithErrors: []int{}}},
		{"errors without rows", []int{1}, 0, Statistics{RowsWithErrors: []int{1}}},
		{"deduplicated and sorted", []int{4, 2, 4, 2}, 8, Statistics{RowsWithErrors: []int{2, 4}, RowsAnalysed: 8, PercentRowsWithErrors: 25}},
		{"rounded", []int{1}, 3, Statistics{RowsWithErrors: []int{1}, RowsAnalysed: 3, PercentRowsWithErrors: 33}},
		{"rounded up", []int{1, 2}, 3, Statistics{RowsWithErrors: []int{1, 2}, RowsAnalysed: 3, PercentRowsWithErrors: 67}},
		{"all", []int{1, 2}, 2, Statistics{RowsWithErrors: []int{1, 2}, RowsAnalysed: 2, PercentRowsWithErrors: 100}},
	}
	for _, tc := range tests {
		s := newStatistics()
		for _, r := range tc.rows {
			s.markRow(r)
		}
		s.analysed = tc.analysed
		if got := s.snapshot(); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: snapshot = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestKeyIndex(t *testing.T) {
	t.Parallel()

	idx := newKeyIndex()
	if _, dup := idx.firstSeen("1, a", 1); dup {
		t.Fatal("first key reported as duplicate")
	}
	if _, dup := idx.firstSeen("1, b", 2); dup {
		t.Fatal("distinct key reported as duplicate")
	}
	for _, row := range []int{3, 4} {
		first, dup := idx.firstSeen("1, a", row)
		if !dup || first != 1 {
			t.Fatalf("row %d: firstSeen = %d, %v; want 1, true", row, first, dup)
		}
	}

	// Keys sharing a bucket are still told apart.
	idx.buckets[xxh3.HashString("x")] = append(idx.buckets[xxh3.HashString("x")], seenKey{key: "y", row: 9})
	if _, dup := idx.firstSeen("x", 10); dup {
		t.Fatal("bucket collision reported as duplicate")
	}
}
