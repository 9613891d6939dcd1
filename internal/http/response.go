package httpapi

import (
	"encoding/json"
	"net/http"
)

// Every endpoint answers with the same envelope: data responses carry
// success=true, failures carry success=false plus a message.

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   *int        `json:"count,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, DataResponse{Success: true, Data: data})
}

// WriteList wraps a page of items together with the total match count.
func WriteList(w http.ResponseWriter, data interface{}, count int) {
	WriteJSON(w, http.StatusOK, DataResponse{Success: true, Data: data, Count: &count})
}

func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: message})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: message})
}
