package handlers

import (
	"encoding/json"
	"net/http"
)

// apiError is one entry of the fixed error vocabulary returned to clients.
type apiError struct {
	status  int
	message string
}

var (
	errInvalidInput     = apiError{http.StatusBadRequest, "Invalid input"}
	errInvalidUserID    = apiError{http.StatusBadRequest, "Invalid user ID"}
	errUserNotFound     = apiError{http.StatusNotFound, "User not found"}
	errEndpointNotFound = apiError{http.StatusNotFound, "Endpoint not found"}
	errMethodNotAllowed = apiError{http.StatusMethodNotAllowed, "Method not allowed"}
	errInternal         = apiError{http.StatusInternalServerError, "Internal server error"}
)

// writeJSON serialises v as JSON and writes it to the response with the
// given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a standard JSON error response of the form
// {"message": "..."}.
func writeError(w http.ResponseWriter, e apiError) {
	writeJSON(w, e.status, map[string]string{"message": e.message})
}
