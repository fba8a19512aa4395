// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunRefresh, RunLogout, RunRegister,
// RunSetRole) accepts a typed dependency struct and returns a result carrying
// a failure kind. The Engine maps kinds to public sentinel errors, metrics and
// audit events, which keeps this package free of those concerns and lets the
// flows be tested with plain fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the principal provider, refresh-hash
// store, hasher and token manager. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
package flows
