package api

// api_types.go holds the request and response bodies of the pass issuer API

import (
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

// HashStatusResponse is the registry state of one target hash.
type HashStatusResponse struct {
	// RegistryAddress is the document store the state was read from
	RegistryAddress string `json:"registryAddress"`

	// Hash is the canonical target hash ("0x" followed by lowercase hex)
	Hash string `json:"hash"`

	Status  registry.Status `json:"status"`
	Issued  bool            `json:"issued"`
	Revoked bool            `json:"revoked"`

	// Valid is true when the hash is issued and not revoked
	Valid bool `json:"valid"`
}

// NewHashStatusResponse converts a registry read-back into its response form.
func NewHashStatusResponse(address string, s registry.HashStatus) HashStatusResponse {
	return HashStatusResponse{
		RegistryAddress: address,
		Hash:            s.Hash,
		Status:          s.Status(),
		Issued:          s.Issued,
		Revoked:         s.Revoked,
		Valid:           s.Valid(),
	}
}

// SubmitHashesRequest is the body of the admin issue and revoke endpoints.
type SubmitHashesRequest struct {
	// Hashes are target hashes in any case, with or without the 0x prefix.
	// Duplicates are submitted once.
	Hashes []string `json:"hashes"`
}

// SubmitHashesResponse reports a committed issue or revoke submission.
type SubmitHashesResponse struct {
	RegistryAddress string               `json:"registryAddress"`
	Receipt         *registry.Receipt    `json:"receipt,omitempty"`
	Bulk            bool                 `json:"bulk"`
	Statuses        []HashStatusResponse `json:"statuses"`
}
