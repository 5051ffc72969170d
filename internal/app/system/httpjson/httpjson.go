// Package httpjson reads and writes the JSON bodies of the API.
//
// Every error response has the shape {"error": "<message>"}.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/civicbridge/internal/app/system/apperr"
)

// DefaultMaxBody bounds request bodies when the caller passes 0 to Decode.
const DefaultMaxBody int64 = 12 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Write encodes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Error: msg})
}

// Decode reads a JSON body of at most maxBytes into dst. Malformed, empty or
// oversized bodies yield an apperr validation error.
func Decode(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.KindValidation, "Request body too large", err)
		}
		if errors.Is(err, io.EOF) {
			return apperr.ErrInvalidJSON
		}
		return apperr.Wrap(apperr.KindValidation, apperr.ErrInvalidJSON.Message, err)
	}
	return nil
}
