package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorInterface(t *testing.T) {
	var _ error = &Error{}
	var _ error = &ValidationError{}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"engine", NewEngineError("backend unreachable"), "EngineFailure: backend unreachable"},
		{"materialization", NewMaterializationError("fetch failed"), "MaterializationFailure: fetch failed"},
		{"unknown media", NewUnknownMediaError("unrecognized prefix"), "UnknownMediaFormat: unrecognized prefix"},
		{"protocol", NewProtocolError("update without conversation id"), "ProtocolViolation: update without conversation id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesClassifiedErrors(t *testing.T) {
	inner := NewUnknownMediaError("no magic bytes matched")
	wrapped := Wrap(ErrorKindMaterialization, fmt.Errorf("ref 2: %w", inner))
	if wrapped.Kind != ErrorKindUnknownMedia {
		t.Errorf("Wrap kind = %q, want %q", wrapped.Kind, ErrorKindUnknownMedia)
	}
}

func TestWrapClassifiesPlainErrors(t *testing.T) {
	wrapped := Wrap(ErrorKindMaterialization, errors.New("connection reset"))
	if wrapped.Kind != ErrorKindMaterialization {
		t.Errorf("Wrap kind = %q, want %q", wrapped.Kind, ErrorKindMaterialization)
	}
	if wrapped.Message != "connection reset" {
		t.Errorf("Wrap message = %q, want %q", wrapped.Message, "connection reset")
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("expected cause to remain reachable through Unwrap")
	}
}

func TestWrapNil(t *testing.T) {
	if got := Wrap(ErrorKindEngine, nil); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		err      error
		want     string
	}{
		{
			"classified with provider",
			"Bing",
			NewMaterializationError("fetch failed"),
			"Bing: MaterializationFailure: fetch failed",
		},
		{
			"classified without provider",
			"",
			NewEngineError("boom"),
			"EngineFailure: boom",
		},
		{
			"plain error defaults to engine kind",
			"OpenaiChat",
			errors.New("timeout"),
			"OpenaiChat: EngineFailure: timeout",
		},
		{
			"wrapped classified error",
			"",
			fmt.Errorf("stream: %w", NewUnknownMediaError("bad prefix")),
			"UnknownMediaFormat: bad prefix",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Translate(tt.provider, tt.err); got != tt.want {
				t.Errorf("Translate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{"with param", NewValidationError("messages", "at least one message is required"), "invalid request: at least one message is required (param: messages)"},
		{"without param", &ValidationError{Message: "bad body"}, "invalid request: bad body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
