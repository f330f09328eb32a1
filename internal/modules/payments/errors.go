package payments

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields   = errors.New("missing required callback fields")
	ErrBadSignature    = errors.New("signature verification failed")
	ErrAmountMismatch  = errors.New("callback amount does not match pending payment")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrDuplicateOrder  = errors.New("order id already has an active payment")
	ErrForbidden       = errors.New("forbidden")
	ErrNotCancellable  = errors.New("payment not cancellable")
	ErrProgramNotOpen  = errors.New("program not open for enrollment")
	ErrProgramFull     = errors.New("program capacity reached")
)

// AuthDeclinedError: the gateway's client-side authentication did not
// succeed; the gateway message is safe to show.
type AuthDeclinedError struct {
	Code string
	Msg  string
}

func (e *AuthDeclinedError) Error() string {
	return fmt.Sprintf("payment auth declined: code=%s msg=%s", e.Code, e.Msg)
}

// GatewayError: the gateway answered, but with a non-success result.
type GatewayError struct {
	Code string
	Msg  string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: code=%s msg=%s", e.Code, e.Msg)
}
