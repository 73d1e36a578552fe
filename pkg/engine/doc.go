// Package engine defines the contract between the bridge and a chat
// generation backend. An Engine turns one request into a lazy sequence of
// Fragment values delivered over a channel; the Fragment type is a closed
// union, so consumers can switch over it exhaustively. Engines that can
// enumerate their backends additionally implement Catalog.
package engine
