package alignment

// Scorer is the scoring policy used by the Smith-Waterman engine.
//
// Implementations must be pure and deterministic. Score must be symmetric,
// positive for identical characters and negative otherwise. GapPenalty must be
// monotonic in n; the engine always subtracts it.
type Scorer interface {
	Score(a, b rune) float64
	GapPenalty(n int) float64
}

// Default scoring parameters.
const (
	DefaultMatchScore = 3.0
	DefaultGapPenalty = 2.0
)

// SimpleScorer awards BaseScore for a match, -BaseScore for a mismatch, and a
// linear gap penalty of BaseGapPenalty per gap position.
type SimpleScorer struct {
	BaseScore      float64
	BaseGapPenalty float64
}

// NewSimpleScorer creates a SimpleScorer.
func NewSimpleScorer(baseScore, baseGapPenalty float64) SimpleScorer {
	return SimpleScorer{BaseScore: baseScore, BaseGapPenalty: baseGapPenalty}
}

// DefaultScorer returns the reference scorer (match 3, gap 2).
func DefaultScorer() SimpleScorer {
	return NewSimpleScorer(DefaultMatchScore, DefaultGapPenalty)
}

// Score implements Scorer.
func (s SimpleScorer) Score(a, b rune) float64 {
	if a == b {
		return s.BaseScore
	}
	return -s.BaseScore
}

// GapPenalty implements Scorer.
func (s SimpleScorer) GapPenalty(n int) float64 {
	return float64(n) * s.BaseGapPenalty
}
