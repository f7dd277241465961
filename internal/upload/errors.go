package upload

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by the upload path. Each maps to one response.
var (
	ErrTooLarge = errors.New("file too large")
	ErrNotJPEG  = errors.New("not a jpeg image")
	ErrNoFile   = errors.New("no file received")
	ErrNotFound = errors.New("image not found")
)

// Messages sent to clients.
const (
	msgTooLarge    = "File too large. Max size is 10MB."
	msgNotJPEG     = "Only .jpg/.jpeg images are allowed."
	msgNoFile      = "No file received."
	msgNotFound    = "Image not found."
	msgServerError = "Server error."
	msgUploadFail  = "Upload failed."
)

// apiError is the JSON body of every failed request.
type apiError struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// classify maps an upload error to a status code and client message.
func classify(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, ErrNotJPEG):
		return http.StatusUnsupportedMediaType, msgNotJPEG
	case errors.Is(err, ErrNoFile), errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return http.StatusBadRequest, msgNoFile
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case err == nil:
		return http.StatusBadRequest, msgUploadFail
	default:
		return http.StatusBadRequest, err.Error()
	}
}
