package match

import (
	"time"

	"github.com/gokatarajesh/superover/internal/match/scoring"
)

// MatchMode constants.
const (
	ModeBot    = "bot"
	ModeFriend = "friend"
)

// MatchStatus lifecycle states. completed is terminal.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// MaxBalls is fixed for every match.
const MaxBalls = scoring.MaxBalls

// WinnerTie is stored in Match.Winner when runs are level.
const WinnerTie = scoring.Tie

// Player is one side of a match. Accuracy and Difficulty are only set for bots.
type Player struct {
	ID         string   `json:"id"`
	IsBot      bool     `json:"isBot"`
	Difficulty string   `json:"difficulty,omitempty"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	scoring.Innings
}

// Stats returns a snapshot of the player's counters.
func (p Player) Stats() scoring.Innings {
	return p.Innings
}

// Match is the aggregate for one super over between two players.
type Match struct {
	ID          string     `json:"matchId"`
	PlayerA     Player     `json:"playerA"`
	PlayerB     Player     `json:"playerB"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	CurrentBall int        `json:"currentBall"`
	MaxBalls    int        `json:"maxBalls"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Winner      *string    `json:"winner"`
}

// Clone returns a deep copy so stored records are never aliased.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.PlayerA.Accuracy = cloneFloat(m.PlayerA.Accuracy)
	c.PlayerB.Accuracy = cloneFloat(m.PlayerB.Accuracy)
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	return &c
}

// IsCompleted reports whether the match reached its terminal state.
func (m *Match) IsCompleted() bool {
	return m.Status == StatusCompleted
}

// Sides returns the player identified by playerID and that player's opponent.
// ok is false when playerID belongs to neither side.
func (m *Match) Sides(playerID string) (player, opponent *Player, ok bool) {
	switch playerID {
	case m.PlayerA.ID:
		return &m.PlayerA, &m.PlayerB, true
	case m.PlayerB.ID:
		return &m.PlayerB, &m.PlayerA, true
	default:
		return nil, nil, false
	}
}

// WinnerID returns the recorded winner or "" while the match is in progress.
func (m *Match) WinnerID() string {
	if m.Winner == nil {
		return ""
	}
	return *m.Winner
}

// CreateRequest is the input to Service.CreateMatch.
type CreateRequest struct {
	PlayerAID  string
	Mode       string
	Difficulty string
}

// AnswerRequest is the input to Service.SubmitAnswer.
type AnswerRequest struct {
	MatchID   string
	PlayerID  string
	IsCorrect bool
}

// AnswerResult is returned after a ball has been applied.
type AnswerResult struct {
	Match         *Match
	Outcome       scoring.Outcome
	BotOutcome    *scoring.Outcome
	PlayerStats   scoring.Innings
	OpponentStats scoring.Innings
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
