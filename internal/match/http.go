package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/auth"
	"github.com/gokatarajesh/superover/internal/logging"
	"github.com/gokatarajesh/superover/internal/match/bot"
	"github.com/gokatarajesh/superover/internal/match/scoring"
	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for super over matches.
type HTTPHandlers struct {
	service  *Service
	opponent *bot.Opponent
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for match endpoints. opponent drives
// the quiz-aware bot endpoint.
func NewHTTPHandlers(service *Service, opponent *bot.Opponent, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:  service,
		opponent: opponent,
		logger:   logger.With().Str("component", "match_http").Logger(),
	}
}

type createMatchRequest struct {
	PlayerAID  string `json:"playerAId"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

type createMatchResponse struct {
	Success bool   `json:"success"`
	MatchID string `json:"matchId"`
	Match   *Match `json:"match"`
}

type getMatchResponse struct {
	Success bool   `json:"success"`
	Match   *Match `json:"match"`
}

type submitAnswerRequest struct {
	MatchID   string `json:"matchId"`
	PlayerID  string `json:"playerId"`
	IsCorrect *bool  `json:"isCorrect"`
}

type submitAnswerResponse struct {
	Success       bool             `json:"success"`
	Match         *Match           `json:"match"`
	PlayerStats   scoring.Innings  `json:"playerStats"`
	OpponentStats scoring.Innings  `json:"opponentStats"`
	Outcome       scoring.Outcome  `json:"outcome"`
	BotOutcome    *scoring.Outcome `json:"botOutcome,omitempty"`
}

type botAnswerRequest struct {
	Question   *bot.Question `json:"question"`
	Difficulty string        `json:"difficulty"`
}

type botAnswerResponse struct {
	Success    bool      `json:"success"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"isCorrect"`
	AnswerTime int64     `json:"answerTime"`
	Timestamp  time.Time `json:"timestamp"`
}

// CreateMatch handles POST /match/create
func (h *HTTPHandlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "Invalid JSON payload")
		return
	}

	if sub, ok := auth.SubjectFromContext(r.Context()); ok && req.PlayerAID != "" && req.PlayerAID != sub {
		httperrors.RespondForbidden(w, httperrors.ErrCodePlayerMismatch, "playerAId does not match the signed-in user", "")
		return
	}

	m, err := h.service.CreateMatch(r.Context(), CreateRequest{
		PlayerAID:  req.PlayerAID,
		Mode:       req.Mode,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.respondServiceError(w, r, err, httperrors.ErrCodeMatchCreationFailed, "Failed to create match")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, createMatchResponse{
		Success: true,
		MatchID: m.ID,
		Match:   m,
	})
}

// GetMatch handles GET /match/{matchId}
func (h *HTTPHandlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	m, err := h.service.GetMatch(r.Context(), r.PathValue("matchId"))
	if err != nil {
		h.respondServiceError(w, r, err, httperrors.ErrCodeInternalError, "Failed to load match")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, getMatchResponse{Success: true, Match: m})
}

// SubmitAnswer handles POST /match/answer
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A non-boolean isCorrect fails decoding with a type error.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "isCorrect" {
			h.respondServiceError(w, r, ErrIsCorrectRequired, "", "")
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "Invalid JSON payload")
		return
	}

	switch {
	case req.MatchID == "":
		h.respondServiceError(w, r, ErrMatchIDRequired, "", "")
		return
	case req.PlayerID == "":
		h.respondServiceError(w, r, ErrPlayerIDRequired, "", "")
		return
	case req.IsCorrect == nil:
		h.respondServiceError(w, r, ErrIsCorrectRequired, "", "")
		return
	}

	if !h.authorizeAnswer(w, r, req) {
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), AnswerRequest{
		MatchID:   req.MatchID,
		PlayerID:  req.PlayerID,
		IsCorrect: *req.IsCorrect,
	})
	if err != nil {
		h.respondServiceError(w, r, err, httperrors.ErrCodeSubmitFailed, "Failed to submit answer")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, submitAnswerResponse{
		Success:       true,
		Match:         result.Match,
		PlayerStats:   result.PlayerStats,
		OpponentStats: result.OpponentStats,
		Outcome:       result.Outcome,
		BotOutcome:    result.BotOutcome,
	})
}

// authorizeAnswer lets an authenticated caller answer for themselves or for
// the bot in their match. It writes the error response and returns false
// when the caller may not act as req.PlayerID.
func (h *HTTPHandlers) authorizeAnswer(w http.ResponseWriter, r *http.Request, req submitAnswerRequest) bool {
	sub, ok := auth.SubjectFromContext(r.Context())
	if !ok || sub == req.PlayerID {
		return true
	}

	m, err := h.service.GetMatch(r.Context(), req.MatchID)
	if err != nil {
		h.respondServiceError(w, r, err, httperrors.ErrCodeSubmitFailed, "Failed to submit answer")
		return false
	}
	player, opponent, found := m.Sides(req.PlayerID)
	if found && player.IsBot && opponent.ID == sub {
		return true
	}

	httperrors.RespondForbidden(w, httperrors.ErrCodePlayerMismatch, "playerId does not match the signed-in user", "")
	return false
}

// BotAnswer handles POST /match/bot-answer. The response is delayed by the
// tier's thinking time.
func (h *HTTPHandlers) BotAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}
	if !h.service.Enabled() {
		h.respondServiceError(w, r, ErrFeatureDisabled, "", "")
		return
	}

	var req botAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "Invalid JSON payload")
		return
	}
	if req.Question == nil || req.Question.CorrectAnswer == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "question.correctAnswer is required")
		return
	}

	ans, err := h.opponent.PlayTurn(r.Context(), *req.Question, req.Difficulty)
	if err != nil {
		// Client went away while the bot was thinking.
		logging.FromContext(r.Context(), h.logger).Debug().Err(err).Msg("bot answer abandoned")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, botAnswerResponse{
		Success:    true,
		Answer:     ans.Answer,
		IsCorrect:  ans.IsCorrect,
		AnswerTime: ans.AnswerTime,
		Timestamp:  ans.Timestamp,
	})
}

// MissingMatchID handles GET /match/ with no id.
func (h *HTTPHandlers) MissingMatchID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}
	h.respondServiceError(w, r, ErrMatchIDRequired, "", "")
}

// respondServiceError renders domain errors with their own status and code;
// anything else becomes a 500 with fallbackCode and fallbackMsg.
func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMsg string) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		httperrors.RespondError(w, domainErr.Kind.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Detail)
		return
	}

	logging.FromContext(r.Context(), h.logger).Error().Err(err).Msg("match request failed")
	httperrors.RespondError(w, http.StatusInternalServerError, fallbackCode, fallbackMsg, err.Error())
}
