package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when an add carries a non-positive share count.
	ErrInvalidQuantity = errors.New("shares must be greater than zero")
	// ErrInvalidPrice is returned for a negative purchase price.
	ErrInvalidPrice = errors.New("purchase price must not be negative")
	// ErrInvalidSymbol is returned for an empty symbol.
	ErrInvalidSymbol = errors.New("symbol must not be empty")
	// ErrNotFound is returned when a symbol is not in the portfolio.
	ErrNotFound = errors.New("not found in portfolio")
	// ErrPersistence marks a ledger store that could not commit. The
	// in-memory portfolio keeps the mutation that triggered the save.
	ErrPersistence = errors.New("ledger not saved")

	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrTransportFailure = errors.New("quote source unreachable")
)

// QuoteErrorKind separates business-level absence of data from failures to
// reach the data source at all.
type QuoteErrorKind int

const (
	QuoteUnavailable QuoteErrorKind = iota
	TransportFailure
)

func (k QuoteErrorKind) String() string {
	if k == TransportFailure {
		return "transport_failure"
	}
	return "quote_unavailable"
}

// QuoteError is the only error a QuoteSource returns.
type QuoteError struct {
	Symbol string
	Kind   QuoteErrorKind
	Reason string
	Err    error
}

// NewQuoteUnavailable builds a QuoteUnavailable error with a diagnostic reason.
func NewQuoteUnavailable(symbol, reason string) *QuoteError {
	return &QuoteError{Symbol: symbol, Kind: QuoteUnavailable, Reason: reason}
}

// NewTransportFailure builds a TransportFailure error wrapping cause.
func NewTransportFailure(symbol string, cause error) *QuoteError {
	reason := "unreachable"
	if cause != nil {
		reason = cause.Error()
	}
	return &QuoteError{Symbol: symbol, Kind: TransportFailure, Reason: reason, Err: cause}
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Symbol, e.sentinel(), e.Reason)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// Is matches ErrQuoteUnavailable or ErrTransportFailure according to Kind.
func (e *QuoteError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *QuoteError) sentinel() error {
	if e.Kind == TransportFailure {
		return ErrTransportFailure
	}
	return ErrQuoteUnavailable
}
