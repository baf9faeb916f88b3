// Package identity issues and decodes the bearer tokens that carry a caller's
// execution context across process boundaries.
//
// JWTProvider signs HS256 JWTs whose subject is the username and whose
// "roles" claim lists the caller roles. Decode never fails: a malformed,
// expired, or revoked token yields the anonymous execution context, which
// the bus then authorizes like any unauthenticated call.
//
//	provider, err := identity.NewJWTProviderFromConfig(cfg,
//		identity.WithRevocationStore(redis.NewRevocationList(client)),
//	)
//	token, err := provider.Encode(ctx, "alice", []string{"Editor"})
//	ec := provider.Decode(ctx, token) // alice, [Editor]
//	_ = provider.Revoke(ctx, token)
//	ec = provider.Decode(ctx, token) // anonymous
package identity
