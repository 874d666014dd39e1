// Package httputil maps domain errors onto HTTP responses so handlers stay
// thin and no core-internal types leak across the presentation boundary.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"kitstock/pkg/derrors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP status plus a JSON error
// body. Internal and persistence failures omit the description so store
// details never reach the operator's browser.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *derrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeBadRequest, derrors.CodeMalformedAddress, derrors.CodeInvalidHierarchy:
		return http.StatusBadRequest
	case derrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case derrors.CodeNotFound, derrors.CodeUnknownAddress:
		return http.StatusNotFound
	case derrors.CodeConflict, derrors.CodeAddressSpaceExhausted:
		return http.StatusConflict
	case derrors.CodePersistenceConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
