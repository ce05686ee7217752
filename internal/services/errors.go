package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service errors; handlers map each kind to one HTTP status
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
	KindAuth       ErrorKind = "auth"
	KindConflict   ErrorKind = "conflict"
	KindGateway    ErrorKind = "gateway"
	KindInternal   ErrorKind = "internal"
)

// Error codes returned to clients
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeTokenMissing       = "TOKEN_MISSING"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeNameTaken          = "NAME_TAKEN"
	CodeGuideUnavailable   = "GUIDE_UNAVAILABLE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeBookingNotPending  = "BOOKING_NOT_PENDING"
	CodeBookingHasPayments = "BOOKING_HAS_PAYMENTS"
	CodeBookingNotPayable  = "BOOKING_NOT_PAYABLE"
	CodeAlreadyPaid        = "PAYMENT_ALREADY_COMPLETED"
	CodeNotRefundable      = "PAYMENT_NOT_REFUNDABLE"
	CodeStillReferenced    = "STILL_REFERENCED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeGateway            = "GATEWAY_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is the error type returned across the service boundary
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed or missing input
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// NotFoundError reports a missing entity
func NotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: entity + " not found"}
}

// ForbiddenError reports an authenticated caller acting outside its permissions
func ForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// AuthError reports a missing or rejected credential
func AuthError(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

// ConflictError reports a request that would break a state invariant
func ConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// GatewayError reports a failed call to the payment provider
func GatewayError(message string, err error) *Error {
	return &Error{Kind: KindGateway, Code: CodeGateway, Message: message, Err: err}
}

// InternalError wraps an unexpected failure
func InternalError(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// AsError returns err as *Error, treating anything unclassified as internal
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return InternalError(err)
}

// IsKind reports whether err is a service error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}

func (e *Error) withCode(code string) *Error {
	e.Code = code
	return e
}
