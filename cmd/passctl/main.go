package main

import "github.com/information-sharing-networks/pass-issuer/internal/cli"

//	@title			pass-issuer
//	@description	pass-issuer verifies passes issued as OpenAttestation documents and reports the document store state of their target hashes.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	## Request Limits
//	@description	The /v1 endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	## Authentication & Authorization
//	@description
//	@description	The verification endpoints are public. The admin endpoints are only mounted with `passctl serve --admin`
//	@description	and are unprotected: use them in development and testing only.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Verification
//	@tag.description	Hash status and pass verification

//	@tag.name			Common
//	@tag.description	Server API endpoints (jwks, health, readiness, version)

//	@tag.name			Admin
//	@tag.description	Issue and revoke target hashes. Development and testing only.

func main() {
	cli.Execute()
}
