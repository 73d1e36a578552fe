package api

import (
	"errors"
	"fmt"
)

// ErrorKind names the failure category carried on the wire.
type ErrorKind string

const (
	ErrorKindEngine          ErrorKind = "EngineFailure"
	ErrorKindMaterialization ErrorKind = "MaterializationFailure"
	ErrorKindUnknownMedia    ErrorKind = "UnknownMediaFormat"
	ErrorKindProtocol        ErrorKind = "ProtocolViolation"
)

// Error is a classified bridge failure. Kind selects the taxonomy entry,
// Message is the user-presentable detail, Err preserves the cause for
// errors.Is/As chains.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface as "<Kind>: <message>".
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error { return e.Err }

// NewEngineError creates an EngineFailure with the given message.
func NewEngineError(message string) *Error {
	return &Error{Kind: ErrorKindEngine, Message: message}
}

// NewMaterializationError creates a MaterializationFailure with the given message.
func NewMaterializationError(message string) *Error {
	return &Error{Kind: ErrorKindMaterialization, Message: message}
}

// NewUnknownMediaError creates an UnknownMediaFormat failure.
func NewUnknownMediaError(message string) *Error {
	return &Error{Kind: ErrorKindUnknownMedia, Message: message}
}

// NewProtocolError creates a ProtocolViolation. These are tolerated by the
// encoder (logged and ignored), never fatal on their own.
func NewProtocolError(message string) *Error {
	return &Error{Kind: ErrorKindProtocol, Message: message}
}

// Wrap classifies err under kind, preserving it as the cause. If err is
// already a classified *Error it is returned unchanged, keeping the more
// precise inner kind. Wrap returns nil for a nil err.
func Wrap(kind ErrorKind, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// Translate renders err for an error envelope. The format is
// "<Kind>: <message>", prefixed with "<provider>: " when the current call has
// a resolved provider. Errors outside the taxonomy translate as EngineFailure.
// Messages are not sanitized further; the trust boundary is the request layer.
func Translate(provider string, err error) string {
	var msg string
	var e *Error
	if errors.As(err, &e) {
		msg = e.Error()
	} else {
		msg = string(ErrorKindEngine) + ": " + err.Error()
	}
	if provider != "" {
		return provider + ": " + msg
	}
	return msg
}

// ValidationError rejects a malformed request before any streaming starts.
// It maps to an HTTP 400 in the transport layer, never to an error envelope.
type ValidationError struct {
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid request: %s (param: %s)", e.Message, e.Param)
	}
	return "invalid request: " + e.Message
}

// NewValidationError creates a ValidationError for the given parameter.
func NewValidationError(param, message string) *ValidationError {
	return &ValidationError{Param: param, Message: message}
}

// ErrorResponse is the JSON body of a non-streaming error reply.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error detail inside an ErrorResponse.
type ErrorBody struct {
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// NewErrorResponse builds the non-streaming error body for err.
func NewErrorResponse(err error) ErrorResponse {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrorResponse{Error: ErrorBody{Message: ve.Message, Param: ve.Param}}
	}
	return ErrorResponse{Error: ErrorBody{Message: err.Error()}}
}
