package api

import (
	"encoding/json"
	"net/http"

	"github.com/tendant/simple-carousel/pkg/carousel"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AddItemResponse echoes the uploaded files. Name, type and size repeat the
// last file for clients that only read one file back.
type AddItemResponse struct {
	Name    string              `json:"name,omitempty"`
	Type    string              `json:"type,omitempty"`
	Size    int64               `json:"size,omitempty"`
	Files   []carousel.FileEcho `json:"files"`
	Created int                 `json:"created"`
	Skipped int                 `json:"skipped"`
}

// HTMLFragment replaces the element matched by a selector
type HTMLFragment [2]string

// HTMLResponse carries re-rendered fragments and an optional message
type HTMLResponse struct {
	HTML    []HTMLFragment `json:"html"`
	Message string         `json:"message,omitempty"`
}

// ItemsResponse carries the rendered item list
type ItemsResponse struct {
	Items   string `json:"items"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}
