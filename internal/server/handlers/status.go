package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/information-sharing-networks/pass-issuer/internal/api"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

// StatusReader reads hash state from the registry. *registry.Client implements it.
type StatusReader interface {
	Address() string
	Status(ctx context.Context, hashes ...string) ([]registry.HashStatus, error)
}

// HandleHashStatus godoc
//
//	@Summary		Get target hash status
//	@Description	Returns the document store state of a target hash.
//	@Description
//	@Description	The hash may be given in any case, with or without the 0x prefix.
//	@Description	A hash that was never issued is reported with status `unissued`.
//	@Tags			Registry
//	@Produce		json
//	@Param			hash	path		string	true	"target hash"
//	@Success		200		{object}	api.HashStatusResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid hash"
//	@Failure		503		{object}	api.ErrorResponse	"Ledger unavailable"
//	@Router			/v1/hashes/{hash}/status [get]
func HandleHashStatus(reader StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := chi.URLParam(r, "hash")

		statuses, err := reader.Status(r.Context(), hash)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}
		if len(statuses) != 1 {
			api.RespondWithErrorResponse(w, r, api.NewInternalError("registry returned an unexpected number of statuses"))
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, api.NewHashStatusResponse(reader.Address(), statuses[0]))
	}
}
