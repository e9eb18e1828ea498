package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/pass-issuer/internal/api"
	"github.com/information-sharing-networks/pass-issuer/internal/logger"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

// HashSubmitter issues and revokes target hashes. *registry.Client implements it.
type HashSubmitter interface {
	Address() string
	Issue(ctx context.Context, hashes ...string) (*registry.Result, error)
	Revoke(ctx context.Context, hashes ...string) (*registry.Result, error)
}

// HandleIssueHashes godoc
//
//	@Summary		Issue target hashes
//	@Description	Records the target hashes as issued in the document store.
//	@Description
//	@Description	Duplicates are submitted once. More than one unique hash is committed atomically:
//	@Description	if any hash is refused none of them change state.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			hashes	body		api.SubmitHashesRequest	true	"target hashes"
//	@Success		201		{object}	api.SubmitHashesResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid hash"
//	@Failure		409		{object}	api.ErrorResponse	"Ledger rejected transition"
//	@Router			/admin/v1/hashes/issue [post]
func HandleIssueHashes(submitter HashSubmitter) http.HandlerFunc {
	return handleSubmit(submitter, registry.TransitionIssue)
}

// HandleRevokeHashes godoc
//
//	@Summary		Revoke target hashes
//	@Description	Records issued target hashes as revoked in the document store.
//	@Description
//	@Description	Revoking a hash that is not issued, or is already revoked, is rejected.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			hashes	body		api.SubmitHashesRequest	true	"target hashes"
//	@Success		201		{object}	api.SubmitHashesResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid hash"
//	@Failure		409		{object}	api.ErrorResponse	"Ledger rejected transition"
//	@Router			/admin/v1/hashes/revoke [post]
func HandleRevokeHashes(submitter HashSubmitter) http.HandlerFunc {
	return handleSubmit(submitter, registry.TransitionRevoke)
}

func handleSubmit(submitter HashSubmitter, transition registry.Transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.ContextRequestLogger(r.Context())

		var req api.SubmitHashesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithErrorResponse(w, r, api.WrapMalformedRequestError(err, "invalid request body"))
			return
		}
		if len(req.Hashes) == 0 {
			api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("hashes is required"))
			return
		}

		var (
			result *registry.Result
			err    error
		)
		if transition == registry.TransitionIssue {
			result, err = submitter.Issue(r.Context(), req.Hashes...)
		} else {
			result, err = submitter.Revoke(r.Context(), req.Hashes...)
		}
		if err != nil {
			if result != nil && result.Receipt != nil {
				// committed but the read-back failed
				reqLogger.Warn("submission committed without read-back",
					slog.String("tx_id", result.Receipt.TxID),
					slog.String("transition", string(transition)))
			}
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("transition", string(transition)),
			slog.String("tx_id", result.Receipt.TxID),
		)

		response := api.SubmitHashesResponse{
			RegistryAddress: submitter.Address(),
			Receipt:         result.Receipt,
			Bulk:            result.Bulk,
			Statuses:        make([]api.HashStatusResponse, 0, len(result.Statuses)),
		}
		for _, s := range result.Statuses {
			response.Statuses = append(response.Statuses, api.NewHashStatusResponse(submitter.Address(), s))
		}
		api.RespondWithJSONPayload(w, http.StatusCreated, response)
	}
}
