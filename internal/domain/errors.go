package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrKind groups errors by how the transport layer answers them.
type ErrKind string

const (
	KindValidation       ErrKind = "validation"
	KindAuth             ErrKind = "auth"
	KindForbidden        ErrKind = "forbidden"
	KindNotFound         ErrKind = "not_found"
	KindMethodNotAllowed ErrKind = "method_not_allowed"
	KindConflict         ErrKind = "conflict"
	KindRateLimited      ErrKind = "rate_limited"
	KindPayloadTooLarge  ErrKind = "payload_too_large"
	KindInfrastructure   ErrKind = "infrastructure"
	KindInternal         ErrKind = "internal"
)

// GenericFailure is the text shown whenever the cause must stay hidden.
const GenericFailure = "something went wrong"

// Error is the error type every layer returns. Message is safe to show to
// the user as a notice; Cause is only ever logged.
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// With sets one Meta entry and returns e.
func (e *Error) With(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string, 2)
	}
	e.Meta[key] = value
	return e
}

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// Is reports whether err is, or wraps, a domain error with the given code.
func Is(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// KindOf returns KindInternal for errors that are not domain errors.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of a domain error, or "internal".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return "internal"
}

// Form and input problems. Field details stay in Meta; the notice is generic.

func ErrMissingField(field string) *Error {
	return New(KindValidation, "missing_field", GenericFailure).With("field", field)
}

func ErrInvalidField(field, reason string) *Error {
	return New(KindValidation, "invalid_field", GenericFailure).
		With("field", field).
		With("reason", reason)
}

func ErrInvalidForm(fields map[string]string) *Error {
	e := New(KindValidation, "invalid_form", GenericFailure)
	e.Meta = fields
	return e
}

func ErrInvalidRole(role string) *Error {
	return New(KindValidation, "invalid_role", "Invalid role.").With("role", role)
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

func ErrPasswordTooLong() *Error {
	return New(KindValidation, "password_too_long", "Ensure the password has at most 72 bytes.").
		With("max_bytes", strconv.Itoa(MaxPasswordBytes))
}

func ErrPasswordMismatch() *Error {
	return New(KindValidation, "password_mismatch", "The two password fields didn't match.")
}

// Identity.

// ErrInvalidCredentials covers unknown email, wrong password and inactive accounts alike.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", GenericFailure)
}

func ErrLoginRequired() *Error {
	return New(KindAuth, "login_required", "Please log in to continue.")
}

func ErrSessionInvalid() *Error {
	return New(KindAuth, "session_invalid", "session is invalid or expired")
}

func ErrResetTokenInvalid() *Error {
	return New(KindAuth, "reset_token_invalid", "The password reset link is invalid or has expired.")
}

// Permissions.

func ErrSuperuserRequired() *Error {
	return New(KindForbidden, "insufficient_role", "You do not have permission to manage users.").
		With("required", string(RoleSuperuser))
}

// ErrCannotAffectSelf stops a superuser deleting or re-roling their own account.
func ErrCannotAffectSelf() *Error {
	return New(KindForbidden, "cannot_affect_self", "You cannot perform this action on your own account.")
}

func ErrCSRFRejected(reason string) *Error {
	return New(KindForbidden, "csrf_rejected", "request origin not allowed").With("reason", reason)
}

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "User not found.")
}

func ErrRouteNotFound() *Error {
	return New(KindNotFound, "route_not_found", "page not found")
}

func ErrMethodNotAllowed(method string) *Error {
	return New(KindMethodNotAllowed, "method_not_allowed", "method not allowed").With("method", method)
}

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "User already exists.")
}

func ErrRateLimited(scope string) *Error {
	return New(KindRateLimited, "rate_limited", "Too many attempts, please try again later.").With("scope", scope)
}

func ErrPayloadTooLarge(limit int64) *Error {
	return New(KindPayloadTooLarge, "payload_too_large", "request body too large").
		With("limit_bytes", strconv.FormatInt(limit, 10))
}

// Backing services and internal faults.

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
