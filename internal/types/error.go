package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError   ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError        ErrorCode = "VALIDATION_ERROR"
	NotFound               ErrorCode = "NOT_FOUND"
	InvalidAmount          ErrorCode = "INVALID_AMOUNT"
	InvalidAccount         ErrorCode = "INVALID_ACCOUNT"
	AlreadyStaked          ErrorCode = "ALREADY_STAKED"
	PendingReward          ErrorCode = "PENDING_REWARD"
	NoStakeFound           ErrorCode = "NO_STAKE_FOUND"
	AlreadyUnstaked        ErrorCode = "ALREADY_UNSTAKED"
	TransferFailed         ErrorCode = "TRANSFER_FAILED"
	ReconciliationRequired ErrorCode = "RECONCILIATION_REQUIRED"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error carries a machine readable code next to the human readable reason.
// Callers branch on ErrorCode only, the message is for display.
type Error struct {
	StatusCode int
	ErrorCode  ErrorCode
	Err        error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        errors.New(msg),
	}
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  InternalServiceError,
		Err:        err,
	}
}

func NewValidationFailedError(err error) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  ValidationError,
		Err:        err,
	}
}

// HasErrorCode reports whether err is an *Error with the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	var typedErr *Error
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.ErrorCode == code
}
