// Package apperror carries the typed failures returned by the payment
// lifecycle. Every error has a machine readable kind and code plus a human
// message, and maps onto a single HTTP status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindExpired            Kind = "expired"
	KindAlreadyConsumed    Kind = "already_consumed"
	KindVerificationFailed Kind = "verification_failed"
	KindCommissionFailed   Kind = "commission_failed"
	KindNothingToRetry     Kind = "nothing_to_retry"
	KindTimeout            Kind = "timeout"
	KindUnauthorized       Kind = "unauthorized"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
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

// Is matches on code so that errors.Is(err, ErrQuoteExpired) holds for any
// QUOTE_EXPIRED error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy carrying the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidInput         = New(KindInvalidInput, "INVALID_PAYLOAD", "invalid request payload")
	ErrInvalidAmount        = New(KindInvalidInput, "INVALID_AMOUNT", "amount must be a positive decimal")
	ErrUnsupportedCurrency  = New(KindInvalidInput, "UNSUPPORTED_CURRENCY", "currency is not supported")
	ErrQuoteMismatch        = New(KindInvalidInput, "QUOTE_MISMATCH", "amount or currency does not match the quote")
	ErrInvalidPaymentProof  = New(KindInvalidInput, "INVALID_PAYMENT_PROOF", "payment proof is malformed")
	ErrQuoteNotFound        = New(KindNotFound, "QUOTE_NOT_FOUND", "quote not found")
	ErrSessionNotFound      = New(KindNotFound, "SESSION_NOT_FOUND", "session not found")
	ErrPaymentNotFound      = New(KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrQuoteExpired         = New(KindExpired, "QUOTE_EXPIRED", "quote has expired")
	ErrSessionExpired       = New(KindExpired, "SESSION_EXPIRED", "session has expired")
	ErrQuoteAlreadyConsumed = New(KindAlreadyConsumed, "QUOTE_ALREADY_CONSUMED", "quote is already bound to a session")
	ErrVerificationFailed   = New(KindVerificationFailed, "SETTLEMENT_VERIFICATION_FAILED", "payment verification failed")
	ErrCommissionFailed     = New(KindCommissionFailed, "COMMISSION_FAILED", "commission transfer failed")
	ErrNothingToRetry       = New(KindNothingToRetry, "NOTHING_TO_RETRY", "no commission transfer to retry")
	ErrTimeout              = New(KindTimeout, "FACILITATOR_TIMEOUT", "facilitator did not answer in time")
	ErrUnauthorized         = New(KindUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
	ErrInternal             = New(KindInternal, "INTERNAL", "internal error")
)

// From converts any error into an *Error. Untyped errors become internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExpired, KindAlreadyConsumed, KindNothingToRetry:
		return http.StatusConflict
	case KindVerificationFailed:
		return http.StatusPaymentRequired
	case KindCommissionFailed:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
