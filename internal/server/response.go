package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload any) error {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	return nil
}

func writeError(writer http.ResponseWriter, req *http.Request, statusCode int, message string) error {
	return writeJSON(writer, statusCode, ErrorResponse{
		Status:  statusCode,
		Error:   http.StatusText(statusCode),
		Message: message,
		Path:    req.URL.Path,
	})
}

// entityNotFoundMessage is the message of the 404 returned for an unknown employee id.
func entityNotFoundMessage(identifier int) string {
	return fmt.Sprintf("Entity with ID = %d not found", identifier)
}
