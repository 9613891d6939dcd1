package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"thaimooc-backend-go/internal/services"
)

func parseInt(raw string, fallback int) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// writeServiceError maps a service-layer error onto the envelope; anything
// without a status is a 500 and gets logged rather than leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	log.Printf("internal error: %v", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeBody decodes a JSON payload and runs struct validation when the
// target carries validate tags.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(target); err != nil {
			WriteError(w, http.StatusBadRequest, validationMessage(err))
			return false
		}
	}
	return true
}

func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, "Error:"); idx >= 0 {
		return "Validation failed: " + msg[idx+len("Error:"):]
	}
	return "Validation failed"
}
