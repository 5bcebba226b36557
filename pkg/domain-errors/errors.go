// Package domainerrors defines the classified error kinds that cross service
// boundaries. Stores return sentinel errors (pkg/platform/sentinel) or wrapped
// driver failures; services translate them into one of these coded errors so
// callers and transports can branch on the kind without knowing the driver.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error into a stable, transport-agnostic kind.
type Code string

const (
	// Lending workflow kinds.
	CodeNotFound         Code = "not_found"
	CodeMemberIneligible Code = "member_ineligible"
	CodeOutOfStock       Code = "out_of_stock"
	CodeDuplicateLoan    Code = "duplicate_loan"
	CodeDataAccess       Code = "data_access"
	CodeTransaction      Code = "transaction_failed"

	// Ambient kinds.
	CodeValidation   Code = "validation"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error carries a Code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another coded error by code and message, so errors.Is works
// against a freshly constructed comparison value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error. The cause stays
// reachable through errors.Is / errors.As and HasCode.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			return false
		}
		if coded.Code == code {
			return true
		}
		err = coded.Err
	}
	return false
}

// Is is a convenience alias for HasCode, matching how handlers read.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in err's chain, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer should send.
func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMemberIneligible, CodeForbidden:
		return http.StatusForbidden
	case CodeOutOfStock, CodeDuplicateLoan, CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
