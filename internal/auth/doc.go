// Package auth protects the mutating API routes with staff accounts.
//
// Two modes are supported:
//   - "none": no authentication (default), every request is attributed to "anonymous"
//   - "basic": POST, PUT, PATCH and DELETE requests need HTTP basic credentials
//     of a staff account; reads stay public
//
// # Configuration
//
//	AUTH_MODE=basic
//	AUTH_BCRYPT_COST=12   # bcrypt cost factor for new accounts
//	AUTH_REALM=library    # realm sent in WWW-Authenticate
//
// Staff accounts are created with the create-staff command.
//
// # Usage
//
//	authService := auth.NewService(staff.NewRepository(db.DB), cfg.Auth.BcryptCost)
//	router.Use(auth.NewMiddleware(authService, cfg.Auth).Handler())
//
// Handlers read the acting user with auth.Actor(c).
package auth
