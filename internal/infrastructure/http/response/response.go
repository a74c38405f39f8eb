package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body: {"detail": "..."}
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error response with err's text as the detail
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{Detail: err.Error()})
}

// NoContent sends an empty 204 response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
