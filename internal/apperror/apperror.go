package apperror

import (
	"errors"
	"fmt"
)

// Kind tags every error that crosses a component boundary.
// The HTTP layer maps each kind to exactly one status code.
type Kind string

const (
	KindInvalidInput       Kind = "InvalidInput"
	KindUnauthorized       Kind = "Unauthorized"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
	KindNotFoundYet        Kind = "NotFoundYet"
	KindOutOfStock         Kind = "OutOfStock"
	KindInsufficientStock  Kind = "InsufficientStock"
	KindEmptyCart          Kind = "EmptyCart"
	KindNotConfigured      Kind = "NotConfigured"
	KindPaymentProvider    Kind = "PaymentProviderError"
	KindInvalidTransaction Kind = "InvalidTransaction"
	KindInvalidToken       Kind = "InvalidOrAlreadyUsed"
	KindInternal           Kind = "Internal"
)

// Error is the tagged result returned by the checkout core.
type Error struct {
	Kind    Kind
	Message string

	// Stock conflicts name the offending product and what is left.
	ProductID string
	Available int

	// Detail carries provider-supplied context (e.g. a rejected price id).
	Detail string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperror.NotFoundYet).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	InvalidInput       = &Error{Kind: KindInvalidInput}
	Unauthorized       = &Error{Kind: KindUnauthorized}
	Forbidden          = &Error{Kind: KindForbidden}
	NotFound           = &Error{Kind: KindNotFound}
	NotFoundYet        = &Error{Kind: KindNotFoundYet}
	OutOfStock         = &Error{Kind: KindOutOfStock}
	InsufficientStock  = &Error{Kind: KindInsufficientStock}
	EmptyCart          = &Error{Kind: KindEmptyCart}
	NotConfigured      = &Error{Kind: KindNotConfigured}
	PaymentProvider    = &Error{Kind: KindPaymentProvider}
	InvalidTransaction = &Error{Kind: KindInvalidTransaction}
	InvalidToken       = &Error{Kind: KindInvalidToken}
	Internal           = &Error{Kind: KindInternal}
)

// New builds a tagged error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Stock builds an OutOfStock or InsufficientStock error for one product.
func Stock(kind Kind, productID string, available int) *Error {
	return &Error{
		Kind:      kind,
		Message:   fmt.Sprintf("only %d unit(s) of product %s available", available, productID),
		ProductID: productID,
		Available: available,
	}
}

// KindOf reports the kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
