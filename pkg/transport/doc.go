// Package transport defines the handler interfaces and middleware chain for
// the strom HTTP transport layer.
//
// The transport layer sits between external clients and the streaming
// response bridge. It deserializes incoming requests into the wire types
// defined in pkg/api, dispatches them for processing, and relays the
// resulting envelope sequence back to the client.
//
// # Handler Interfaces
//
// ChatStreamer is the contract between the transport layer and the bridge:
// the implementation receives a chat request and writes its envelope
// sequence to an EnvelopeWriter. The EnvelopeWriter abstracts the wire
// framing, so the bridge never knows whether envelopes leave as NDJSON
// chunks or land in a test buffer.
//
// # Middleware
//
// The middleware chain wraps ChatStreamer with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. Custom middleware
// can be added for application-specific concerns.
package transport
