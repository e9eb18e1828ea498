// Package api holds the HTTP contract of the pass issuer service: request and response
// bodies, the error response format and the mapping from package errors to it.
package api
