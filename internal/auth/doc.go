// Package auth resolves the viewer of every API request to a users row.
//
// There is no sign-up or password login here. It supports two modes:
//   - "none": every request runs as the shared local-dev user (default)
//   - "jwt": requests carry an HS256 bearer token issued by an external
//     identity provider; its "sub" and "iss" claims identify the user
//
// # Configuration
//
//	AUTH_MODE=none            # Default, everyone is the local-dev user
//	AUTH_MODE=jwt             # Require Authorization: Bearer <token>
//	AUTH_JWT_SECRET=<secret>  # Shared HS256 secret of the identity provider
//	AUTH_JWT_ISSUER=<iss>     # Expected issuer, empty accepts any
//	ALLOW_LOCAL_AUTH=true     # In jwt mode, requests without a token run as local-dev
//
// # Usage
//
//	mw := auth.NewMiddleware(users.NewRepository(db), cfg.Auth)
//	api.Use(mw.Handler())
//
// Extract the viewer in handlers:
//
//	userID := auth.GetUserID(c)
package auth
