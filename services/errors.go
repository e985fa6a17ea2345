package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindState      ErrorKind = "state"
	KindNetwork    ErrorKind = "network"
	KindNotFound   ErrorKind = "not_found"
)

// Error is the single error type returned by the POS core. Kind tells
// the caller how to react; Op names the operation that failed.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewStateError(op, format string, args ...any) *Error {
	return &Error{Kind: KindState, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewNetworkError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: "order API unreachable", Err: err}
}

// KindOf returns the kind of err, or "" when err is not a POS error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// Error message constants
const (
	ErrMsgQuantityTooLarge   = "quantity %d exceeds the maximum of %d per item"
	ErrMsgCartFull           = "cart already holds the maximum of %d items"
	ErrMsgNotesTooLong       = "notes are %d characters, the maximum is %d"
	ErrMsgProductNotInCart   = "product %d is not in the cart"
	ErrMsgInvalidPrice       = "product %d has a negative price"
	ErrMsgOrderTerminal      = "order %d is %s and can no longer change"
	ErrMsgCartEmpty          = "cart is empty"
	ErrMsgPaymentMethod      = "payment method %q is not supported"
	ErrMsgDiscountRange      = "discount percentage must be between 0 and 100"
	ErrMsgNoTable            = "no table selected"
	ErrMsgNoOrder            = "no open order for this session"
	ErrMsgInvalidStatus      = "unknown order status %q"
	ErrMsgInvalidTransition  = "order %d cannot move from %s to %s"
	ErrMsgPaymentRequired    = "order %d has no recorded payment; pay it through checkout"
	ErrMsgDocumentKind       = "unknown document kind %q"
	ErrMsgReceiptNeedsPaid   = "order %d is %s; receipts are only printed for paid orders"
	ErrMsgCancelledNoReceipt = "order %d is cancelled"
	ErrMsgSessionChanged     = "session moved to another table or order"
	ErrMsgWrongTable         = "order %d belongs to table %d, not %d"
)
