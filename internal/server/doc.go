// Package server provides the HTTP service of the pass issuer.
//
// The server is configured through environment variables
// (see internal/config/config.go for details).
//
// Public routes report target hash status and verify signed passes. The admin routes
// issue and revoke target hashes and are only mounted when Dependencies.EnableAdmin is set.
//
// Handlers are in internal/server/handlers and middleware is in internal/server/middleware.
package server
