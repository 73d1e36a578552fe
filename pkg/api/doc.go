// Package api defines the wire protocol types for the strom streaming bridge.
//
// A response stream is a sequence of [Envelope] values, each a discriminated
// record serialized as {"type": <kind>, <kind>: <payload>} with a string
// payload. The package also defines the inbound [ChatRequest], the error
// taxonomy ([Error] with an [ErrorKind]), and [Translate], which renders any
// failure into the provider-attributed string carried by an error envelope.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
package api
