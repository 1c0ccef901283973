// Package errors defines the error kinds returned by the management service.
//
// Every failure surfaced to a caller is an *Error carrying one Kind. The
// HTTP layer maps the kind to a status code through StatusOf.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidParameter
	KindNotFound
	KindDuplicateUnique
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindNotFound:
		return "not_found"
	case KindDuplicateUnique:
		return "duplicate_unique"
	case KindForbidden:
		return "forbidden"
	default:
		return "server_error"
	}
}

// Sentinels usable with errors.Is; matching is by kind.
var (
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrDuplicateUnique  = &Error{Kind: KindDuplicateUnique}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrInternal         = &Error{Kind: KindInternal}
)

// Codes for specific domain failures.
const (
	CodeClientUndeletable = "client_undeletable"
	CodeDuplicateHostURI  = "duplicate_host_uri"
	CodeInvalidHostURI    = "invalid_host_uri"
	CodeInvalidName       = "invalid_name"
	CodeInvalidScope      = "invalid_scope"
	CodeMissingTeam       = "missing_team"
	CodeTeamUndeletable   = "team_undeletable"
)

// StatusCodes maps kinds to HTTP statuses.
var StatusCodes = map[Kind]int{
	KindInvalidParameter: http.StatusBadRequest,
	KindNotFound:         http.StatusNotFound,
	KindDuplicateUnique:  http.StatusBadRequest,
	KindForbidden:        http.StatusForbidden,
	KindInternal:         http.StatusInternalServerError,
}

// Error is a classified failure. Code is optional and more specific than Kind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. A target carrying
// a Code only matches errors with that code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// ErrorCode returns the code rendered in error bodies.
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func InvalidParameter(code, msg string) *Error {
	return &Error{Kind: KindInvalidParameter, Code: code, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func DuplicateUnique(msg string, err error) *Error {
	return &Error{Kind: KindDuplicateUnique, Message: msg, Err: err}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if code, ok := StatusCodes[KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Is and New forward to the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func New(text string) error { return errors.New(text) }
