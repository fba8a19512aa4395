// Package pgstore is a Postgres principal store for authcore. One table
// holds the credential hash, role and current refresh-token hash of each
// principal, so a single Store can serve as both the engine's
// PrincipalProvider and its session store:
//
//	st, err := pgstore.Open(dsn)
//	...
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRoles(authcore.DefaultRoleTable()).
//		WithPrincipalProvider(st).
//		WithSessionStore(st).
//		Build()
package pgstore
