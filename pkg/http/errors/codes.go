package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodePlayerMismatch         = "player_mismatch"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Match errors
	ErrCodeMatchNotFound       = "match_not_found"
	ErrCodeMatchCompleted      = "match_completed"
	ErrCodeInvalidPlayer       = "invalid_player"
	ErrCodeNoBallsLeft         = "no_balls_left"
	ErrCodeMatchCreationFailed = "match_creation_failed"
	ErrCodeSubmitFailed        = "submit_failed"
	ErrCodeMatchBusy           = "match_busy"
	ErrCodeQuestionFetchFailed = "question_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload = "invalid_payload"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Feature availability
	ErrCodeFeatureDisabled = "feature_disabled"
	ErrCodeNotImplemented  = "not_implemented"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
