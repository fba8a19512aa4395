// Package permission holds the static role to capability table and the pure
// evaluator that answers "may this role perform this capability".
//
// Capability names are registered into a [Registry] that assigns each a bit;
// a [Policy] stores one [Mask] per role. The table is built once at startup
// and frozen. Evaluation is deny-by-default: an unknown role or an unknown
// capability is never authorized.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import authcore, jwt, or session.
//   - Mutate a Policy after construction.
package permission
