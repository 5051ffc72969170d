// Package apperr defines the error taxonomy shared by stores and handlers.
//
// Stores return either one of the sentinels below or a wrapped driver error.
// Handlers never inspect driver errors themselves; they pass whatever they
// got to the JSON error writer, which asks KindOf for the HTTP status and
// PublicMessage for the text the caller sees.
//
// Kinds and their HTTP status:
//   - Validation      400 missing or malformed input
//   - Authentication  401 no, invalid, or expired session; bad credentials
//   - Authorization   403 signed in but wrong role
//   - NotFound        404 referenced entity does not exist
//   - Conflict        400 duplicate email or duplicate upvote
//   - RateLimited     429 too many attempts
//   - Storage         500 store unreachable or not configured
//   - Unexpected      500 anything else
package apperr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimited
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindStorage:
		return "storage"
	default:
		return "unexpected"
	}
}

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to callers; Err
// carries server-side detail and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err under kind with a public message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation is shorthand for New(KindValidation, msg).
func Validation(msg string) *Error { return New(KindValidation, msg) }

// Storage wraps a store failure.
func Storage(err error) *Error { return Wrap(KindStorage, msgStorageUnavailable, err) }

const (
	msgStorageUnavailable = "Database unavailable"
	msgUnexpected         = "Something went wrong"
)

// Sentinels shared across features.
var (
	ErrUnauthenticated    = New(KindAuthentication, "Unauthorized")
	ErrInvalidCredentials = New(KindAuthentication, "Invalid email or password")
	ErrForbidden          = New(KindAuthorization, "Forbidden")
	ErrDuplicateEmail     = New(KindConflict, "An account with this email already exists")
	ErrDuplicateVote      = New(KindConflict, "You have already upvoted this issue")
	ErrIssueNotFound      = New(KindNotFound, "Issue not found")
	ErrUserNotFound       = New(KindNotFound, "User not found")
	ErrRateLimited        = New(KindRateLimited, "Too many attempts. Please wait and try again.")
	ErrStoreNotConfigured = New(KindStorage, "Database not configured. Set CIVICBRIDGE_MONGO_URI and restart the server.")
	ErrInvalidJSON        = New(KindValidation, "Invalid JSON body")
)

// KindOf classifies any error. Unclassified store connectivity failures are
// reported as KindStorage; everything else unclassified is KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnexpected
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if IsStoreUnavailable(err) {
		return KindStorage
	}
	return KindUnexpected
}

// PublicMessage returns the message a caller may see for err. Unexpected
// errors get a generic message so no internals leak.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if IsStoreUnavailable(err) {
		return msgStorageUnavailable
	}
	return msgUnexpected
}

// IsStoreUnavailable reports whether err looks like MongoDB being unreachable.
func IsStoreUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsNetworkError(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "server selection")
}
