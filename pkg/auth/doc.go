// Package auth provides pluggable authentication for the strom bridge.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain, so an empty chain runs open.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// streaming bridge. Liveness, metrics and artifact serving stay on the
// bypass list so dashboards and rendered image links keep working without
// credentials.
package auth
