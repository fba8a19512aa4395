// Package jwt mints and verifies the signed access and refresh tokens.
//
// Both token kinds carry the principal id (sub), the role claim, iat/exp as
// absolute timestamps and a ULID jti. They are signed with distinct key sets,
// so a refresh token never verifies as an access token. Key rotation is a
// configuration concern: publish the new kid in VerifyKeys, switch KeyID, and
// drop the old key after the longest token lifetime has passed.
package jwt
