package relay

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing more can be reported.
		return
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, err error) {
	apiErr := AsAPIError(err)
	writeJSON(w, apiErr.StatusCode, apiErr)
}

// badRequest writes a 400 Bad Request error response.
func badRequest(w http.ResponseWriter, message string) {
	writeError(w, ErrBadRequest.WithMessage(message))
}
