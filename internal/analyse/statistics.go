package analyse

import (
	"math"
	"sort"
)

// Statistics summarises a run.
type Statistics struct {
	// RowsWithErrors lists 1-based data row numbers that had at least one
	// error, ascending and without duplicates.
	RowsWithErrors []int `json:"rows_with_errors"`
	// RowsAnalysed is the number of data rows read by the lexical pass.
	RowsAnalysed int `json:"rows_analysed"`
	// PercentRowsWithErrors is the rounded share of analysed rows with
	// errors; 0 when nothing was analysed.
	PercentRowsWithErrors float64 `json:"percent_rows_with_errors"`
}

type statistics struct {
	rows     map[int]struct{}
	analysed int
}

func newStatistics() *statistics {
	return &statistics{rows: map[int]struct{}{}}
}

func (s *statistics) reset() {
	s.rows = map[int]struct{}{}
	s.analysed = 0
}

func (s *statistics) markRow(row int) { s.rows[row] = struct{}{} }

// snapshot finalises the counters into a Statistics value.
func (s *statistics) snapshot() Statistics {
	rows := make([]int, 0, len(s.rows))
	for r := range s.rows {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	var pct float64
	if s.analysed > 0 {
		pct = math.Round(float64(len(rows)) / float64(s.analysed) * 100)
	}
	return Statistics{
		RowsWithErrors:        rows,
		RowsAnalysed:          s.analysed,
		PercentRowsWithErrors: pct,
	}
}
