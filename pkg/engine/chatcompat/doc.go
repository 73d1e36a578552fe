// Package chatcompat implements engine.Engine against a Chat Completions
// compatible backend. The backend speaks the standard SSE chunk dialect plus
// a small set of extension fields (provider, conversation, preview, images)
// that carry the non-text fragments of a stream; backends without the
// extensions degrade to plain text generation.
package chatcompat
