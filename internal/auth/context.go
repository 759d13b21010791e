package auth

import (
	"context"

	"mindcare/internal/models"
)

type ctxKey string

const therapistKey ctxKey = "currentTherapist"

// WithTherapist stores the guard-resolved caller on the request context.
func WithTherapist(ctx context.Context, t *models.Therapist) context.Context {
	return context.WithValue(ctx, therapistKey, t)
}

// TherapistFromContext returns the authenticated caller, or nil when the
// request did not pass through the access guard.
func TherapistFromContext(ctx context.Context) *models.Therapist {
	if t, ok := ctx.Value(therapistKey).(*models.Therapist); ok {
		return t
	}
	return nil
}

// Subject returns the authenticated caller's id, or "".
func Subject(ctx context.Context) string {
	if t := TherapistFromContext(ctx); t != nil {
		return t.ID
	}
	return ""
}
