package jsonrpc

import (
	"errors"
	"fmt"
)

const (
	CodeParseError     = -32700 // Invalid JSON was received by the server.
	CodeInvalidRequest = -32600 // The JSON sent is not a valid Request object.
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Bounds (inclusive) of the error codes reserved for the protocol.
	CodeReservedMin = -32768
	CodeReservedMax = -32000
)

// Error is a JSON-RPC error object.
//
// Operations may return *Error directly; whether the code reaches the wire is
// decided by the dispatcher's Classifier.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "jsonrpc: error: <nil>"
	}
	return fmt.Sprintf("jsonrpc: %s (%d)", e.Message, e.Code)
}

// AlwaysRespond reports whether a response must be sent for this error even
// when the request was a notification.
func (e *Error) AlwaysRespond() bool {
	return e != nil && (e.Code == CodeParseError || e.Code == CodeInvalidRequest)
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// NewError creates a user-level error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func ErrParse() *Error          { return &Error{Code: CodeParseError, Message: "Parse error"} }
func ErrInvalidRequest() *Error { return &Error{Code: CodeInvalidRequest, Message: "Invalid Request"} }
func ErrMethodNotFound() *Error { return &Error{Code: CodeMethodNotFound, Message: "Method not found"} }
func ErrInvalidParams() *Error  { return &Error{Code: CodeInvalidParams, Message: "Invalid params"} }
func ErrInternal() *Error       { return &Error{Code: CodeInternalError, Message: "Internal error"} }

// IsReserved reports whether code lies in the band reserved for
// protocol-defined errors.
func IsReserved(code int) bool {
	return code >= CodeReservedMin && code <= CodeReservedMax
}

// ConfigError reports a registry or export misconfiguration. It is returned at
// construction time and never surfaces on the wire.
type ConfigError struct {
	Method string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Method == "" {
		return "jsonrpc: config: " + e.Err.Error()
	}
	return "jsonrpc: config: " + e.Method + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

var (
	ErrDuplicateMethod = errors.New("duplicate method name")
	ErrNilSurface      = errors.New("capability surface implementation is nil")
	ErrNotInterface    = errors.New("capability surface must be an interface type")
	ErrBadSignature    = errors.New("unsupported method signature")
	ErrEmptyName       = errors.New("method name must not be empty")
	ErrNilMethod       = errors.New("nil method")
)
