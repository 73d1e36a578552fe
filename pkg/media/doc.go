// Package media turns transient or remote image references produced
// mid-stream into durable, locally servable artifacts.
//
// [Sniff] classifies raw bytes into a canonical media kind by magic-byte
// prefix. [Materializer] resolves a batch of source references concurrently
// with all-or-nothing semantics: each reference is staged under a unique
// temporary name, verified by sniffing, and published by atomic rename only
// after the whole batch succeeded, so a failed batch never leaves an artifact
// under a final name. Published artifacts are addressed as /images/<name>.<ext>;
// the extension always comes from sniffed content, never from the reference.
package media
