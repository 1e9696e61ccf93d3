// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrExhausted         = errors.New("chain source exhausted")
	ErrUnknownProvider   = errors.New("unknown data provider")
	ErrUnknownRiskPolicy = errors.New("unknown risk policy")
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrMissingColumn     = errors.New("provider column missing from header")
	ErrPricingKeyAbsent  = errors.New("pricing source key absent")
	ErrLegNotInChain     = errors.New("leg not found in chain")
	ErrIdentityMismatch  = errors.New("option identity mismatch")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrEmptyChain        = errors.New("empty option chain")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// RowError represents a rejected input row. Row rejection is recoverable;
// callers log it and skip the row.
type RowError struct {
	Line   int
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: field %q (%q): %s: %v", e.Line, e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("row %d: field %q (%q): %s", e.Line, e.Field, e.Value, e.Reason)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NewRowError creates a new RowError.
func NewRowError(line int, field, value, reason string, err error) *RowError {
	return &RowError{
		Line:   line,
		Field:  field,
		Value:  value,
		Reason: reason,
		Err:    err,
	}
}

// ConfigError represents a fatal configuration error detected at startup.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error [%s]: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config error [%s]: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string, err error) *ConfigError {
	return &ConfigError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// UpdateError represents a failed per-tick position update. The portfolio
// treats it as a forced close, never as a fatal error.
type UpdateError struct {
	Ticker string
	Detail string
	Err    error
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update error [%s]: %s: %v", e.Ticker, e.Detail, e.Err)
	}
	return fmt.Sprintf("update error [%s]: %s", e.Ticker, e.Detail)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// NewUpdateError creates a new UpdateError.
func NewUpdateError(ticker, detail string, err error) *UpdateError {
	return &UpdateError{
		Ticker: ticker,
		Detail: detail,
		Err:    err,
	}
}
