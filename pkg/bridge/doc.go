// Package bridge implements the streaming response bridge between the chat
// transport and a generation engine. The Bridge prepares each request
// (model defaulting, conversation resumption), drives the engine's fragment
// sequence through a per-stream encoder, and emits the ordered envelope
// sequence defined in pkg/api. It implements transport.ChatStreamer.
// Optional collaborators (media store, cookie source) use nil-safe
// composition for graceful degradation.
package bridge
