package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mindcare/internal/apperr"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.Conflict:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure as {"error": kind, "detail": message}.
// Anything that is not an apperr.Error becomes an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.New(apperr.Internal, "internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(ae.Kind))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": ae.Kind.String(), "detail": ae.Message})
}
