// Package alignment implements Smith-Waterman local sequence alignment over
// Unicode text.
//
// Align builds the score and traceback matrices, finds every cell holding the
// best score, and enumerates every optimal traceback from each of them.
// Results are ordered by endpoint (row-major) and then by tie exploration
// order (Diag, Up, Left); callers that need a single alignment take the first.
package alignment

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is returned when either input has no characters.
var ErrEmptySequence = errors.New("alignment is not possible with empty sequences")

// ErrInputTooLarge is returned when the matrices would exceed Options.MaxCells.
var ErrInputTooLarge = errors.New("alignment input too large")

// CellKind tags an alignment step.
type CellKind uint8

const (
	// Both pairs a character of the left sequence with one of the right.
	Both CellKind = iota
	// RightGap consumes a left character against a gap in the right sequence.
	RightGap
	// LeftGap consumes a right character against a gap in the left sequence.
	LeftGap
)

func (k CellKind) String() string {
	switch k {
	case Both:
		return "Both"
	case RightGap:
		return "RightGap"
	case LeftGap:
		return "LeftGap"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// Cell is one step of an alignment. Left or Right is -1 when that side is a gap.
type Cell struct {
	Kind  CellKind
	Left  int
	Right int
}

// BothCell returns a cell pairing left and right.
func BothCell(left, right int) Cell { return Cell{Kind: Both, Left: left, Right: right} }

// RightGapCell returns a cell where left aligns against a gap.
func RightGapCell(left int) Cell { return Cell{Kind: RightGap, Left: left, Right: -1} }

// LeftGapCell returns a cell where right aligns against a gap.
func LeftGapCell(right int) Cell { return Cell{Kind: LeftGap, Left: -1, Right: right} }

func (c Cell) String() string {
	switch c.Kind {
	case Both:
		return fmt.Sprintf("Both(%d,%d)", c.Left, c.Right)
	case RightGap:
		return fmt.Sprintf("RightGap(%d)", c.Left)
	default:
		return fmt.Sprintf("LeftGap(%d)", c.Right)
	}
}

// Alignment is an index-ascending sequence of cells.
type Alignment []Cell

// Result holds every optimal alignment found and their shared score.
type Result struct {
	Score      float64
	Alignments []Alignment

	// Truncated is set when Options.MaxTracebacks cut enumeration short.
	// Total then holds the number of optimal alignments that exist.
	Truncated bool
	Total     uint64
}

// Aligner aligns two sequences.
type Aligner interface {
	Align(a, b string) (*Result, error)
}

// Options bound the cost of a single alignment. Zero means unlimited.
type Options struct {
	// MaxCells caps (len(a)+1)*(len(b)+1).
	MaxCells int
	// MaxTracebacks caps the number of alignments enumerated per call.
	MaxTracebacks int
}

// SmithWaterman is an Aligner using the Smith-Waterman algorithm.
type SmithWaterman struct {
	scorer Scorer
	opts   Options
}

// New creates a SmithWaterman aligner.
func New(scorer Scorer, opts Options) *SmithWaterman {
	return &SmithWaterman{scorer: scorer, opts: opts}
}

// NewDefault creates an unbounded aligner with the reference scorer.
func NewDefault() *SmithWaterman {
	return New(DefaultScorer(), Options{})
}

// Align returns every optimal local alignment of a against b.
//
// When no pair of characters scores above zero the result holds a single
// empty alignment with score 0.
func (sw *SmithWaterman) Align(a, b string) (*Result, error) {
	left, right := []rune(a), []rune(b)
	if len(left) == 0 || len(right) == 0 {
		return nil, ErrEmptySequence
	}
	if sw.opts.MaxCells > 0 {
		cells := (len(left) + 1) * (len(right) + 1)
		if cells > sw.opts.MaxCells {
			return nil, fmt.Errorf("%w: %d cells exceeds limit of %d", ErrInputTooLarge, cells, sw.opts.MaxCells)
		}
	}

	scores, trace := BuildMatrices(left, right, sw.scorer)
	best := scores.Max()
	if best == 0 {
		return &Result{Alignments: []Alignment{{}}, Total: 1}, nil
	}

	result := &Result{Score: best}
	remaining := sw.opts.MaxTracebacks
	for _, end := range scores.IndicesOf(best) {
		if sw.opts.MaxTracebacks > 0 && remaining == 0 {
			result.Truncated = true
			break
		}

		paths, truncated := Tracebacks(trace, end, remaining)
		for _, tb := range paths {
			al, err := ToAlignment(tb)
			if err != nil {
				return nil, err
			}
			result.Alignments = append(result.Alignments, al)
		}
		if sw.opts.MaxTracebacks > 0 {
			remaining -= len(paths)
		}
		if truncated {
			result.Truncated = true
			break
		}
	}

	if result.Truncated {
		counts := PathCounts(trace)
		for _, end := range scores.IndicesOf(best) {
			result.Total = saturatingAdd(result.Total, counts[end.Row][end.Col])
		}
	} else {
		result.Total = uint64(len(result.Alignments))
	}

	return result, nil
}
