package response

import (
	"encoding/json"
	"net/http"

	"github.com/futig/joke-flows/internal/entity"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Result writes a successful callable response: {"result": ...}
func Result(w http.ResponseWriter, result any) {
	JSON(w, http.StatusOK, entity.CallableResponse{Result: result})
}

// Error writes a callable error response: {"error": {"status": ..., "message": ...}}
func Error(w http.ResponseWriter, status int, kind entity.ErrorKind, message string) {
	JSON(w, status, entity.CallableErrorResponse{
		Error: entity.CallableError{Status: kind, Message: message},
	})
}
