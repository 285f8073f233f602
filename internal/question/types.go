package question

import (
	"errors"
	"time"
)

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// OverSize is the number of questions in one over.
const OverSize = 6

// Sources a question or over can come from.
const (
	SourceCache     = "cache"
	SourceOpenTDB   = "opentdb"
	SourceTriviaAPI = "triviaapi"
	SourceMixed     = "mixed"
)

var (
	ErrInvalidDifficulty     = errors.New("difficulty must be easy, medium or hard")
	ErrInsufficientQuestions = errors.New("insufficient questions")
)

// Question represents the normalized payload delivered to clients. The
// correct answer is included because the client judges its own answers.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Category      string   `json:"category,omitempty"`
	Source        string   `json:"source"`
}

// PoolKey identifies a cached question pool. Empty fields mean "any".
type PoolKey struct {
	Category   string
	Difficulty string
}

// Pool is a batch of upstream questions that overs are drawn from.
type Pool struct {
	Questions []Question `json:"questions"`
	Source    string     `json:"source"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

func validDifficulty(d string) bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
