package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/courtside/courtside/pkg/api"
)

// HTTPStatusFromError maps a turn error kind to an HTTP status code.
// Non-fatal kinds still get a status here for the case where they are
// the direct answer to a request (e.g. a turn consisting only of an
// unresolvable tool call).
func HTTPStatusFromError(err *api.TurnError) int {
	switch err.Kind {
	case api.ErrKindValidation:
		return http.StatusBadRequest
	case api.ErrKindUnresolvableTool, api.ErrKindBackendRejected:
		return http.StatusBadGateway
	case api.ErrKindBackendUnavailable:
		return http.StatusBadGateway
	case api.ErrKindToolCallLoopExceeded:
		return http.StatusUnprocessableEntity
	case api.ErrKindUpstreamModel:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteTurnError writes a JSON error body, deriving the status code
// from the error kind. Unknown error values are wrapped as a generic
// upstream failure so internal detail never reaches the client.
func WriteTurnError(w http.ResponseWriter, err error, requestID string) {
	var terr *api.TurnError
	if !errors.As(err, &terr) {
		terr = api.NewUpstreamModelError("internal server error")
	}
	if terr.RequestID == "" {
		terr.RequestID = requestID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusFromError(terr))
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: terr})
}
