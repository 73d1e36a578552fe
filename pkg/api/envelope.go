package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnvelopeKind discriminates the wire-level event types of a response stream.
type EnvelopeKind string

const (
	KindProvider     EnvelopeKind = "provider"
	KindContent      EnvelopeKind = "content"
	KindConversation EnvelopeKind = "conversation"
	KindPreview      EnvelopeKind = "preview"
	KindLog          EnvelopeKind = "log"
	KindError        EnvelopeKind = "error"
)

// Envelope is one wire-level unit of the output stream. It serializes as a
// two-key JSON object where the payload key is named after the kind:
//
//	{"type": "content", "content": "hello"}
//
// Payloads are always strings: the provider display name, literal text, a
// conversation identifier, a preview's string form, a diagnostic line, or a
// translated error message.
type Envelope struct {
	Kind    EnvelopeKind
	Payload string
}

// MarshalJSON emits the discriminated two-key object with "type" first.
func (e Envelope) MarshalJSON() ([]byte, error) {
	kind, err := json.Marshal(string(e.Kind))
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	buf.WriteByte(',')
	buf.Write(kind)
	buf.WriteByte(':')
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the discriminated object form. Used by clients and
// tests; the server side only marshals.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	typeField, ok := raw["type"]
	if !ok {
		return fmt.Errorf("envelope missing \"type\" field")
	}
	var kind string
	if err := json.Unmarshal(typeField, &kind); err != nil {
		return fmt.Errorf("envelope \"type\" is not a string: %w", err)
	}

	payloadField, ok := raw[kind]
	if !ok {
		return fmt.Errorf("envelope missing payload field %q", kind)
	}
	var payload string
	if err := json.Unmarshal(payloadField, &payload); err != nil {
		return fmt.Errorf("envelope payload %q is not a string: %w", kind, err)
	}

	e.Kind = EnvelopeKind(kind)
	e.Payload = payload
	return nil
}

// ProviderEnvelope carries the resolved provider display name. It is always
// the first envelope of a stream.
func ProviderEnvelope(name string) Envelope {
	return Envelope{Kind: KindProvider, Payload: name}
}

// ContentEnvelope carries literal response text or rewritten image markdown.
func ContentEnvelope(text string) Envelope {
	return Envelope{Kind: KindContent, Payload: text}
}

// ConversationEnvelope carries the conversation identifier whose continuation
// state was just captured. The state itself never crosses the wire.
func ConversationEnvelope(id string) Envelope {
	return Envelope{Kind: KindConversation, Payload: id}
}

// PreviewEnvelope carries the string form of a partial image preview.
func PreviewEnvelope(preview string) Envelope {
	return Envelope{Kind: KindPreview, Payload: preview}
}

// LogEnvelope carries one diagnostic line captured during generation.
func LogEnvelope(line string) Envelope {
	return Envelope{Kind: KindLog, Payload: line}
}

// ErrorEnvelope carries a translated failure message and terminates the
// stream's useful output.
func ErrorEnvelope(message string) Envelope {
	return Envelope{Kind: KindError, Payload: message}
}
