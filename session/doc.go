// Package session holds the refresh-token store contract and its Redis
// implementation.
//
// # Model
//
// A session is nothing more than the one-way hash of the most recent valid
// refresh token for a subject. Login overwrites it, refresh swaps it and
// logout clears it. Plaintext tokens never reach this package.
//
// # Atomicity
//
// [RedisStore.CompareAndSwap] runs a Lua script that compares and writes in a
// single step. When several refreshes for the same subject race, exactly one
// observes the expected hash and the rest get false.
//
// # What this package must NOT do
//
//   - Import authcore, jwt, or permission (no upward imports).
//   - Hash or verify tokens; callers pass finished hash strings.
package session
