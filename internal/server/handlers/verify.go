package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/information-sharing-networks/pass-issuer/internal/api"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/verify"
)

// DocumentVerifier runs the verification checks on a signed document. *verify.Verifier implements it.
type DocumentVerifier interface {
	Verify(ctx context.Context, doc *document.SignedWrappedDocument) (*verify.Report, error)
}

// HandleVerify godoc
//
//	@Summary		Verify a pass
//	@Description	Checks a signed wrapped document and returns one fragment per check:
//	@Description
//	@Description	- DOCUMENT_INTEGRITY: the target hash and merkle proof match the document data
//	@Description	- DOCUMENT_STATUS: the target hash is issued and not revoked in the document store
//	@Description	- ISSUER_IDENTITY: every proof verifies against a registered issuer key
//	@Description
//	@Description	The response is 200 whether or not the document is valid; see the `valid` field.
//	@Tags			Verification
//	@Accept			json
//	@Produce		json
//	@Param			document	body		object	true	"signed wrapped document"
//	@Success		200			{object}	verify.Report
//	@Failure		400			{object}	api.ErrorResponse	"Malformed request"
//	@Failure		413			{object}	api.ErrorResponse	"Request too large"
//	@Router			/v1/verify [post]
func HandleVerify(verifier DocumentVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc document.SignedWrappedDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			api.RespondWithErrorResponse(w, r, api.WrapMalformedRequestError(err, "failed to decode document"))
			return
		}

		report, err := verifier.Verify(r.Context(), &doc)
		if err != nil {
			api.RespondWithErrorResponse(w, r, api.WrapInternalError(err, "verification failed"))
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, report)
	}
}
