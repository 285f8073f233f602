package scoring

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// MaxBalls is the length of one super over.
const MaxBalls = 6

// Tie is the winner value recorded when both sides finish on equal runs.
const Tie = "tie"

// RunValues are the run totals a correct answer can score.
var RunValues = []int{1, 2, 3, 4, 6}

// ErrNoBallsLeft is returned when an innings has already faced MaxBalls.
var ErrNoBallsLeft = errors.New("no balls left")

// RandomSource is the subset of *rand.Rand (math/rand/v2) the engine draws from.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// Global draws from the math/rand/v2 top-level generator, which is safe for
// concurrent use.
var Global RandomSource = globalSource{}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// Locked serializes access to a source that is not goroutine-safe, such as a
// seeded *rand.Rand.
func Locked(src RandomSource) RandomSource {
	if src == nil {
		return Global
	}
	if _, ok := src.(globalSource); ok {
		return src
	}
	if l, ok := src.(*lockedSource); ok {
		return l
	}
	return &lockedSource{src: src}
}

type lockedSource struct {
	mu  sync.Mutex
	src RandomSource
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Outcome is the result of a single ball. Runs == 0 means a wicket fell.
type Outcome struct {
	IsCorrect bool `json:"isCorrect"`
	Runs      int  `json:"runs"`
}

// Wicket reports whether the ball cost a wicket.
func (o Outcome) Wicket() bool {
	return !o.IsCorrect
}

// Innings holds one side's running tally. Counters only ever grow.
type Innings struct {
	Runs    int `json:"runs"`
	Wickets int `json:"wickets"`
	Balls   int `json:"balls"`
}

// BallsLeft returns how many deliveries remain out of maxBalls.
func (in Innings) BallsLeft(maxBalls int) int {
	if in.Balls >= maxBalls {
		return 0
	}
	return maxBalls - in.Balls
}

// Record applies one ball. Exactly one of Runs or Wickets changes.
func (in *Innings) Record(o Outcome, maxBalls int) error {
	if in.Balls >= maxBalls {
		return ErrNoBallsLeft
	}
	in.Balls++
	if o.IsCorrect {
		in.Runs += o.Runs
	} else {
		in.Wickets++
	}
	return nil
}

// Engine turns answers into outcomes using an injected random source.
type Engine struct {
	rng RandomSource
}

// NewEngine creates a scoring engine. A nil source falls back to Global.
func NewEngine(rng RandomSource) *Engine {
	return &Engine{rng: Locked(rng)}
}

// Source exposes the engine's (goroutine-safe) random source so cooperating
// components can share it.
func (e *Engine) Source() RandomSource {
	return e.rng
}

// DrawRuns picks a run value uniformly from RunValues.
func (e *Engine) DrawRuns() int {
	return DrawRuns(e.rng)
}

// Score converts a correctness flag into an outcome.
func (e *Engine) Score(isCorrect bool) Outcome {
	if !isCorrect {
		return Outcome{}
	}
	return Outcome{IsCorrect: true, Runs: e.DrawRuns()}
}

// DrawRuns picks a run value uniformly from RunValues using rng.
func DrawRuns(rng RandomSource) int {
	return RunValues[rng.IntN(len(RunValues))]
}

// DecideWinner applies the super over rule: strictly more runs wins, equal
// runs is a tie. Wickets are not a tiebreak.
func DecideWinner(aID string, a Innings, bID string, b Innings) string {
	switch {
	case a.Runs > b.Runs:
		return aID
	case b.Runs > a.Runs:
		return bID
	default:
		return Tie
	}
}
