package handlers

import (
	"fmt"
	"net/http"

	"github.com/information-sharing-networks/pass-issuer/internal/api"
)

// HandleNotFound answers unknown routes with an ErrorResponse body.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	api.RespondWithErrorResponse(w, r, api.NewNotFoundError(fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path)))
}
