// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-udp.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrLockTimeout     = errors.New("lock could not be acquired")
	ErrKeyNotFound     = errors.New("key not found in the cache")
	ErrEndpointClosed  = errors.New("endpoint is closed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeLockTimeout
	ErrCodeNotFound
	ErrCodeClosed
	ErrCodeInvalidConfig
	ErrCodeInternal
)

// sentinels maps codes onto the sentinel matched by errors.Is.
var sentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument: ErrInvalidArgument,
	ErrCodeLockTimeout:     ErrLockTimeout,
	ErrCodeNotFound:        ErrKeyNotFound,
	ErrCodeClosed:          ErrEndpointClosed,
	ErrCodeInvalidConfig:   ErrInvalidConfig,
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel for the error code.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
