// Package handlers provides the HTTP handlers for the pass issuer service
// (health, version, jwks, hash status and document verification).
//
// The admin handlers in admin_hashes.go issue and revoke target hashes. They are unprotected
// and only mounted when the server is started with passctl serve --admin.
package handlers
