package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the not-found and invalid-input taxonomies. Callers
// (the HTTP layer) branch on these with errors.Is to pick a status code.
var (
	ErrMarketNotFound = errors.New("market not found")
	ErrNotDerivative  = errors.New("market is not a derivative")
	ErrNoLiquidity    = errors.New("orderbook has no two-sided liquidity")
	ErrInvalidAddress = errors.New("invalid injective address")
	ErrNoMarketIDs    = errors.New("no market ids given")
	ErrTooManyMarkets = errors.New("too many markets requested")
)

// UpstreamError wraps a failed indexer call with a short machine-readable
// code and a human message.
type UpstreamError struct {
	Code    string
	Message string
	Err     error
}

func NewUpstreamError(code, message string, err error) *UpstreamError {
	return &UpstreamError{Code: code, Message: message, Err: err}
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
