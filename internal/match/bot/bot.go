package bot

import (
	"context"
	"errors"
	"time"

	"github.com/gokatarajesh/superover/internal/match/scoring"
)

// Difficulty tiers.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// DefaultDifficulty is used when a caller does not pick a tier.
const DefaultDifficulty = DifficultyMedium

// ErrInvalidDifficulty is returned by strict lookups.
var ErrInvalidDifficulty = errors.New("difficulty must be easy, medium, or hard")

// Profile describes how a bot of one tier plays.
type Profile struct {
	Difficulty  string
	Accuracy    float64
	AnswerDelay time.Duration
}

// Profiles maps difficulty tier to profile.
type Profiles map[string]Profile

// DefaultProfiles returns the built-in tier table.
func DefaultProfiles() Profiles {
	return NewProfiles(
		Profile{Accuracy: 0.5, AnswerDelay: 2000 * time.Millisecond},
		Profile{Accuracy: 0.7, AnswerDelay: 1500 * time.Millisecond},
		Profile{Accuracy: 0.9, AnswerDelay: 1000 * time.Millisecond},
	)
}

// NewProfiles builds a table from per-tier settings; the Difficulty field of
// each argument is overwritten with its tier name.
func NewProfiles(easy, medium, hard Profile) Profiles {
	easy.Difficulty = DifficultyEasy
	medium.Difficulty = DifficultyMedium
	hard.Difficulty = DifficultyHard
	return Profiles{
		DifficultyEasy:   easy,
		DifficultyMedium: medium,
		DifficultyHard:   hard,
	}
}

// Strict resolves a tier and rejects unknown values. An empty difficulty
// selects DefaultDifficulty. Used at match creation, a user-facing boundary.
func (p Profiles) Strict(difficulty string) (Profile, error) {
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	profile, ok := p[difficulty]
	if !ok {
		return Profile{}, ErrInvalidDifficulty
	}
	return profile, nil
}

// Lenient resolves a tier, falling back to DefaultDifficulty for anything
// unknown. Used by the simulation helpers.
func (p Profiles) Lenient(difficulty string) Profile {
	if profile, ok := p[difficulty]; ok {
		return profile
	}
	if profile, ok := p[DefaultDifficulty]; ok {
		return profile
	}
	return DefaultProfiles()[DefaultDifficulty]
}

// SimulateTurn plays one ball for a bot with the given accuracy. The
// correctness draw and the run draw are independent.
func SimulateTurn(rng scoring.RandomSource, accuracy float64) scoring.Outcome {
	if rng.Float64() >= accuracy {
		return scoring.Outcome{}
	}
	return scoring.Outcome{IsCorrect: true, Runs: scoring.DrawRuns(rng)}
}

// Question is the minimal view of a multiple choice question the bot needs.
type Question struct {
	CorrectAnswer string   `json:"correctAnswer"`
	Options       []string `json:"options"`
}

// Answer is what the bot submitted for a question.
type Answer struct {
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"isCorrect"`
	AnswerTime int64     `json:"answerTime"`
	Timestamp  time.Time `json:"timestamp"`
}

// Opponent answers real questions on behalf of a bot.
type Opponent struct {
	profiles Profiles
	rng      scoring.RandomSource
	now      func() time.Time
}

// NewOpponent creates an opponent. Nil profiles select DefaultProfiles and a
// nil source selects scoring.Global.
func NewOpponent(profiles Profiles, rng scoring.RandomSource) *Opponent {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	return &Opponent{
		profiles: profiles,
		rng:      scoring.Locked(rng),
		now:      time.Now,
	}
}

// Profiles returns the tier table the opponent plays with.
func (o *Opponent) Profiles() Profiles {
	return o.profiles
}

// GenerateAnswer picks an answer for q. Correct answers return the question's
// correct option; incorrect ones pick uniformly among the remaining options.
func (o *Opponent) GenerateAnswer(q Question, difficulty string) Answer {
	profile := o.profiles.Lenient(difficulty)
	isCorrect := o.rng.Float64() < profile.Accuracy

	answer := q.CorrectAnswer
	if !isCorrect {
		answer = o.pickWrong(q)
	}

	return Answer{
		Answer:     answer,
		IsCorrect:  isCorrect,
		AnswerTime: profile.AnswerDelay.Milliseconds(),
		Timestamp:  o.now().UTC(),
	}
}

// PlayTurn waits for the tier's thinking time and then answers. The wait
// honours ctx so an abandoned request releases immediately.
func (o *Opponent) PlayTurn(ctx context.Context, q Question, difficulty string) (Answer, error) {
	profile := o.profiles.Lenient(difficulty)

	if profile.AnswerDelay > 0 {
		timer := time.NewTimer(profile.AnswerDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		case <-timer.C:
		}
	}

	return o.GenerateAnswer(q, profile.Difficulty), nil
}

func (o *Opponent) pickWrong(q Question) string {
	wrong := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			wrong = append(wrong, opt)
		}
	}
	if len(wrong) == 0 {
		return ""
	}
	return wrong[o.rng.IntN(len(wrong))]
}
