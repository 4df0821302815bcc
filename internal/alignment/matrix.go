package alignment

import "strings"

// Direction is a single traceback move from a matrix cell to its predecessor.
type Direction uint8

const (
	Diag Direction = 1 << iota
	Up
	Left
)

// directionOrder is the order in which ties are explored during traceback.
var directionOrder = [...]Direction{Diag, Up, Left}

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Diag:
		return "diag"
	case Up:
		return "up"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// DirectionSet holds every direction that produced a cell's score.
// The empty set marks the zero floor where a local alignment starts.
type DirectionSet uint8

// Has reports whether d is in the set.
func (s DirectionSet) Has(d Direction) bool { return s&DirectionSet(d) != 0 }

// Empty reports whether the set has no directions.
func (s DirectionSet) Empty() bool { return s == 0 }

func (s DirectionSet) String() string {
	var parts []string
	for _, d := range directionOrder {
		if s.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Index addresses a cell in the padded (m+1)x(n+1) matrices.
type Index struct {
	Row int
	Col int
}

// step returns the predecessor of idx along d.
func (idx Index) step(d Direction) Index {
	switch d {
	case Diag:
		return Index{idx.Row - 1, idx.Col - 1}
	case Up:
		return Index{idx.Row - 1, idx.Col}
	default:
		return Index{idx.Row, idx.Col - 1}
	}
}

// ScoreMatrix holds local alignment scores. Row and column 0 are zero.
type ScoreMatrix [][]float64

// TracebackMatrix holds, per cell, the directions achieving its score.
type TracebackMatrix [][]DirectionSet

// Max returns the largest score in the matrix.
func (m ScoreMatrix) Max() float64 {
	best := 0.0
	for _, row := range m {
		for _, v := range row {
			if v > best {
				best = v
			}
		}
	}
	return best
}

// IndicesOf returns every cell whose score equals v, in row-major order.
func (m ScoreMatrix) IndicesOf(v float64) []Index {
	var out []Index
	for i, row := range m {
		for j, s := range row {
			if s == v {
				out = append(out, Index{i, j})
			}
		}
	}
	return out
}

// BuildMatrices fills the score and traceback matrices for a against b.
//
// Ties between candidates are compared with exact float equality; every tied
// direction is kept. Time and memory: O(len(a)*len(b)).
func BuildMatrices(a, b []rune, scorer Scorer) (ScoreMatrix, TracebackMatrix) {
	rows, cols := len(a)+1, len(b)+1
	scores := make(ScoreMatrix, rows)
	trace := make(TracebackMatrix, rows)
	for i := range scores {
		scores[i] = make([]float64, cols)
		trace[i] = make([]DirectionSet, cols)
	}

	gap := scorer.GapPenalty(1)
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			diag := scores[i-1][j-1] + scorer.Score(a[i-1], b[j-1])
			up := scores[i-1][j] - gap
			left := scores[i][j-1] - gap

			best := max(diag, up, left)
			if best <= 0 {
				continue
			}

			var dirs DirectionSet
			if diag == best {
				dirs |= DirectionSet(Diag)
			}
			if up == best {
				dirs |= DirectionSet(Up)
			}
			if left == best {
				dirs |= DirectionSet(Left)
			}
			scores[i][j] = best
			trace[i][j] = dirs
		}
	}

	return scores, trace
}
