package transferclient

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	ErrNotApproved       ErrorKind = "NOT_APPROVED"
	ErrRejected          ErrorKind = "REJECTED"
	ErrTimeout           ErrorKind = "TIMEOUT"
	ErrUnavailable       ErrorKind = "UNAVAILABLE"
)

func (k ErrorKind) String() string {
	return string(k)
}

// TransferError is the only error kind a TransferInterface implementation returns.
// Every kind except TIMEOUT means the funds did not move. After a TIMEOUT the outcome
// is unknown until the reference is looked up on the transfer service.
type TransferError struct {
	Kind   ErrorKind
	Reason string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed (%s): %s", e.Kind, e.Reason)
}

func NewTransferError(kind ErrorKind, reason string) *TransferError {
	return &TransferError{Kind: kind, Reason: reason}
}

// KindOf returns the transfer error kind wrapped in err, or UNAVAILABLE for foreign errors.
func KindOf(err error) ErrorKind {
	var transferErr *TransferError
	if errors.As(err, &transferErr) {
		return transferErr.Kind
	}
	return ErrUnavailable
}
