package alignment

import (
	"fmt"
	"math"
)

// Traceback is a path of matrix indices from an endpoint back toward the start
// of a local alignment, in descending index order.
type Traceback []Index

// Tracebacks enumerates every optimal path ending at end.
//
// A path follows the recorded directions until the next cell is the zero
// floor (an empty direction set); that floor cell is not part of the path.
// An endpoint with no directions yields the singleton traceback [end].
//
// Ties are explored depth first in the order Diag, Up, Left, so the returned
// order is deterministic. The walk uses an explicit stack, so its depth is
// bounded by the heap rather than the goroutine stack.
//
// If limit > 0, at most limit tracebacks are returned and truncated reports
// whether more exist.
func Tracebacks(trace TracebackMatrix, end Index, limit int) (paths []Traceback, truncated bool) {
	if trace[end.Row][end.Col].Empty() {
		return []Traceback{{end}}, false
	}

	type frame struct {
		at   Index
		next int
	}

	stack := []frame{{at: end}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		dirs := trace[top.at.Row][top.at.Col]

		pushed := false
		for top.next < len(directionOrder) {
			d := directionOrder[top.next]
			top.next++
			if !dirs.Has(d) {
				continue
			}

			prev := top.at.step(d)
			if !trace[prev.Row][prev.Col].Empty() {
				stack = append(stack, frame{at: prev})
				pushed = true
				break
			}

			if limit > 0 && len(paths) == limit {
				return paths, true
			}
			path := make(Traceback, len(stack))
			for i, f := range stack {
				path[i] = f.at
			}
			paths = append(paths, path)
		}

		if !pushed {
			stack = stack[:len(stack)-1]
		}
	}

	return paths, false
}

// PathCounts returns, for every cell, how many optimal tracebacks start there.
// Counts saturate at math.MaxUint64. Cells are visited in row-major order, so
// every predecessor is counted before the cells that depend on it.
func PathCounts(trace TracebackMatrix) [][]uint64 {
	counts := make([][]uint64, len(trace))
	for i := range trace {
		counts[i] = make([]uint64, len(trace[i]))
		for j, dirs := range trace[i] {
			if dirs.Empty() {
				counts[i][j] = 1
				continue
			}
			var total uint64
			for _, d := range directionOrder {
				if !dirs.Has(d) {
					continue
				}
				prev := Index{i, j}.step(d)
				n := uint64(1)
				if !trace[prev.Row][prev.Col].Empty() {
					n = counts[prev.Row][prev.Col]
				}
				total = saturatingAdd(total, n)
			}
			counts[i][j] = total
		}
	}
	return counts
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// TracebackError reports a traceback whose consecutive indices are not
// contiguous. It signals a defect in matrix construction.
type TracebackError struct {
	Traceback Traceback
	Step      int
}

func (e *TracebackError) Error() string {
	return fmt.Sprintf("invalid traceback at step %d: %v", e.Step, e.Traceback)
}

// ToAlignment converts a traceback into an index-ascending alignment over the
// original sequences.
func ToAlignment(tb Traceback) (Alignment, error) {
	if len(tb) == 0 {
		return Alignment{}, nil
	}

	// Matrix space is padded by one row and column.
	seq := make(Traceback, len(tb))
	for i, idx := range tb {
		seq[len(tb)-1-i] = Index{idx.Row - 1, idx.Col - 1}
	}

	out := make(Alignment, 0, len(seq))
	out = append(out, BothCell(seq[0].Row, seq[0].Col))

	for i := 1; i < len(seq); i++ {
		curr, next := seq[i-1], seq[i]
		dr, dc := next.Row-curr.Row, next.Col-curr.Col
		switch {
		case dr == 1 && dc == 1:
			out = append(out, BothCell(next.Row, next.Col))
		case dr == 1 && dc == 0:
			out = append(out, RightGapCell(next.Row))
		case dr == 0 && dc == 1:
			out = append(out, LeftGapCell(next.Col))
		default:
			return nil, &TracebackError{Traceback: tb, Step: i}
		}
	}

	return out, nil
}
