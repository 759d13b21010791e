package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mindcare/internal/apperr"
	"mindcare/internal/models"
	"mindcare/internal/store"
)

// TherapistResolver maps a verified token subject to a Therapist.
type TherapistResolver interface {
	GetTherapistByID(ctx context.Context, id string) (*models.Therapist, error)
}

func writeErr(w http.ResponseWriter, status int, kind apperr.Kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind.String(), "detail": msg})
}

// Guard authenticates requests. Checks run in order and short-circuit:
// header present, Bearer scheme, non-empty token, valid signature/expiry,
// non-empty subject, subject resolves to a therapist. On success the
// resolved therapist rides the request context.
func Guard(tokens *TokenService, resolver TherapistResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				writeErr(w, http.StatusUnauthorized, apperr.Unauthorized, "Authorization header missing")
				return
			}
			if !strings.HasPrefix(h, "Bearer ") {
				writeErr(w, http.StatusUnauthorized, apperr.Unauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			if raw == "" {
				writeErr(w, http.StatusUnauthorized, apperr.Unauthorized, "Token missing in authorization header")
				return
			}
			sub, err := tokens.Verify(raw)
			if err != nil {
				writeErr(w, http.StatusUnauthorized, apperr.Unauthorized, "Invalid or expired token")
				return
			}
			if sub == "" {
				writeErr(w, http.StatusUnauthorized, apperr.Unauthorized, "Invalid token payload")
				return
			}
			therapist, err := resolver.GetTherapistByID(r.Context(), sub)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeErr(w, http.StatusNotFound, apperr.NotFound, "Therapist not found")
					return
				}
				writeErr(w, http.StatusInternalServerError, apperr.Internal, "internal error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTherapist(r.Context(), therapist)))
		})
	}
}
