// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrAlertNotFound    = errors.New("alert not found")
	ErrWebhookNotFound  = errors.New("webhook endpoint not found")
	ErrAlertsDisabled   = errors.New("alerts are disabled")
	ErrDailyCapReached  = errors.New("daily alert cap reached")
	ErrMonitorRunning   = errors.New("monitor already running")
	ErrMonitorStopped   = errors.New("monitor not running")
	ErrSweepInFlight    = errors.New("a sweep is already in flight")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrRateLimited      = errors.New("rate limited")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrNotConfigured    = errors.New("not configured")
	ErrCircuitOpen      = errors.New("circuit breaker is open")
)

// StorageError represents an error from the persistence layer.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("storage error [%s] %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, table string, err error) *StorageError {
	return &StorageError{Op: op, Table: table, Err: err}
}

// DeliveryError represents a webhook delivery failure.
type DeliveryError struct {
	EndpointID int64
	URL        string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery error [endpoint %d] %s: %v", e.EndpointID, e.URL, e.Err)
	}
	return fmt.Sprintf("delivery error [endpoint %d] %s: status %d", e.EndpointID, e.URL, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(endpointID int64, url string, statusCode int, err error) *DeliveryError {
	return &DeliveryError{EndpointID: endpointID, URL: url, StatusCode: statusCode, Err: err}
}

// TriggerError represents a failure inside one trigger evaluator.
type TriggerError struct {
	Trigger string
	Err     error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("trigger error [%s]: %v", e.Trigger, e.Err)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

// NewTriggerError creates a new TriggerError.
func NewTriggerError(trigger string, err error) *TriggerError {
	return &TriggerError{Trigger: trigger, Err: err}
}

// DataError represents a market-data error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{DataType: dataType, Symbol: symbol, Message: message, Err: err}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
