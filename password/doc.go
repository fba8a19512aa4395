// Package password implements the secret hashing primitive: argon2id hashing
// and verification, plus verification of legacy bcrypt hashes.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// The same primitive hashes login credentials and refresh tokens at rest, so
// a leaked principal row never yields a usable bearer token.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets. Callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext secrets.
package password
