package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"alumni-portal/apperr"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err onto its HTTP status. The underlying cause is only
// exposed when showDetails is set.
func WriteError(w http.ResponseWriter, err error, showDetails bool) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %v", err)
	}
	resp := ErrorResponse{Error: apperr.Message(err)}
	if showDetails && err.Error() != resp.Error {
		resp.Details = err.Error()
	}
	WriteJSON(w, status, resp)
}
