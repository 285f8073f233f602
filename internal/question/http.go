package question

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/superover/internal/logging"
	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
)

// HTTPHandler serves question overs for the quiz-aware match flow.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

type overResponse struct {
	Success   bool       `json:"success"`
	Questions []Question `json:"questions"`
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "question_http").Logger(),
	}
}

// HandleOver handles GET /match/questions?difficulty=&category=
func (h *HTTPHandler) HandleOver(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	questions, err := h.svc.FetchOver(r.Context(), query.Get("category"), query.Get("difficulty"))
	switch {
	case errors.Is(err, ErrInvalidDifficulty):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Invalid difficulty. Must be easy, medium, or hard")
		return
	case err != nil:
		logging.FromContext(r.Context(), h.logger).Warn().Err(err).Msg("question over unavailable")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeQuestionFetchFailed, "Questions are temporarily unavailable")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, overResponse{Success: true, Questions: questions})
}
