package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenRejected ErrCode = "TOKEN_REJECTED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrSessionExpired  ErrCode = "SESSION_EXPIRED"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Composition ───────────────────────────────────────────────────
	ErrNoLecture     ErrCode = "NO_LECTURE_SELECTED"
	ErrNotPicking    ErrCode = "NO_PICKING_SESSION"
	ErrNoQuestions   ErrCode = "NO_QUESTIONS"
	ErrTitleRequired ErrCode = "TITLE_REQUIRED"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrUpstreamUnavailable ErrCode = "UPSTREAM_UNAVAILABLE"
	ErrUpstreamRejected    ErrCode = "UPSTREAM_REJECTED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An upstream bearer token is required."
	case ErrTokenRejected:
		return "The upstream API rejected your token."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The request failed validation."
	case ErrInvalidID:
		return "The identifier in the request is not valid."
	case ErrInvalidPayload:
		return "The request payload could not be parsed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrSessionExpired:
		return "The composition session no longer exists."
	case ErrActionForbidden:
		return "That action is not allowed in the current step."

	// ─── Composition ───────────────────────────────────────────────────
	case ErrNoLecture:
		return "Picking from a lecture requires a selected lecture."
	case ErrNotPicking:
		return "No picking sub-session is active."
	case ErrNoQuestions:
		return "An exam needs at least one question."
	case ErrTitleRequired:
		return "An exam title is required."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrUpstreamUnavailable:
		return "The upstream exams API is unreachable."
	case ErrUpstreamRejected:
		return "The upstream exams API rejected the request."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred. Please try again later."

	default:
		return "An unknown error occurred."
	}
}
