package match

import (
	"errors"
	"net/http"

	httperrors "github.com/gokatarajesh/superover/pkg/http/errors"
)

// ErrorKind classifies domain errors for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindFeatureDisabled
	KindNotImplemented
	KindBusy
)

// Error is a domain error carrying a client-facing message. Detail is an
// optional longer explanation rendered as "message".
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Detail  string
}

func (e *Error) Error() string {
	return e.Message
}

// Domain errors returned by Service.
var (
	ErrPlayerAIDRequired = &Error{Kind: KindValidation, Code: httperrors.ErrCodeMissingField, Message: "playerAId is required"}
	ErrInvalidMode       = &Error{Kind: KindValidation, Code: httperrors.ErrCodeValidationFailed, Message: "mode must be bot or friend"}
	ErrInvalidDifficulty = &Error{Kind: KindValidation, Code: httperrors.ErrCodeValidationFailed, Message: "difficulty must be easy, medium, or hard"}
	ErrMatchIDRequired   = &Error{Kind: KindValidation, Code: httperrors.ErrCodeMissingField, Message: "matchId is required"}
	ErrPlayerIDRequired  = &Error{Kind: KindValidation, Code: httperrors.ErrCodeMissingField, Message: "playerId is required"}
	ErrIsCorrectRequired = &Error{Kind: KindValidation, Code: httperrors.ErrCodeMissingField, Message: "isCorrect must be a boolean"}
	ErrInvalidPlayer     = &Error{Kind: KindValidation, Code: httperrors.ErrCodeInvalidPlayer, Message: "Invalid playerId"}
	ErrReservedPlayerID  = &Error{Kind: KindValidation, Code: httperrors.ErrCodeInvalidPlayer, Message: "playerAId must not start with " + BotIDPrefix}

	ErrMatchNotFound  = &Error{Kind: KindNotFound, Code: httperrors.ErrCodeMatchNotFound, Message: "Match not found"}
	ErrMatchCompleted = &Error{Kind: KindConflict, Code: httperrors.ErrCodeMatchCompleted, Message: "Match already completed"}
	ErrNoBallsLeft    = &Error{Kind: KindConflict, Code: httperrors.ErrCodeNoBallsLeft, Message: "Player has no balls left"}
	ErrMatchBusy      = &Error{Kind: KindBusy, Code: httperrors.ErrCodeMatchBusy, Message: "Match is busy, retry shortly"}

	ErrFeatureDisabled = &Error{
		Kind:    KindFeatureDisabled,
		Code:    httperrors.ErrCodeFeatureDisabled,
		Message: "Super Over feature is disabled",
		Detail:  "Super Over matches are currently turned off. Please try again later.",
	}
	ErrFriendModeNotImplemented = &Error{
		Kind:    KindNotImplemented,
		Code:    httperrors.ErrCodeNotImplemented,
		Message: "Friend mode not yet implemented",
		Detail:  "Only bot matches are available right now.",
	}
)

// KindOf extracts the kind of a domain error; anything else is internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to a response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindNotImplemented:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFeatureDisabled:
		return http.StatusForbidden
	case KindBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
