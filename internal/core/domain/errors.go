package domain

import "errors"

var (
	ErrUnknownAsset        = errors.New("unknown asset symbol")
	ErrUnknownExchange     = errors.New("unknown exchange")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNotFound            = errors.New("key not found")

	// ErrQuotaExhausted marks rate-limit failures of the text generation service.
	// It is the only error class the insight pipelines retry.
	ErrQuotaExhausted       = errors.New("generation quota exhausted")
	ErrGeneratorUnavailable = errors.New("text generator not configured")
	ErrMalformedResponse    = errors.New("malformed generator response")
)
