// Package auth provides authentication and authorization for the library.
//
// Browsers log in with email and password and carry a cookie session
// (scs, stored in the main SQLite database). Scripts may instead send a
// personal API token as "Authorization: Bearer <token>"; only its SHA-256
// hash is stored.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<base64-32-bytes>  # CSRF key, CSRF is off when empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_TOKEN_EXPIRY=720h                 # API token expiry
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failures before lockout
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	middleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(sessionManager.SessionLoadSave(), middleware.Handler())
//	staff.Use(auth.RequireStaff())
//
// Handlers read the caller with auth.GetIdentity(c) and pass it on
// explicitly; nothing below the HTTP layer reads session state.
package auth
