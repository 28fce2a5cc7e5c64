package response

import (
	"encoding/json"
	"net/http"

	"github.com/velocart/storefront-backend/internal/errors"
)

// APIError is the failure body every endpoint returns.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

// Error translates an error into the HTTP status and body the client
// expects. Unknown errors deliberately leak nothing.
func Error(w http.ResponseWriter, err error) {

	if appErr, ok := errors.IsAppError(err); ok {
		WriteJson(w, appErr.StatusCode, APIError{
			Success: false,
			Error:   appErr.Message,
			Details: appErr.Detail,
		})

		return
	}

	WriteJson(w, http.StatusInternalServerError, APIError{
		Success: false,
		Error:   "An unexpected error occurred during the order process.",
	})
}
