package store

import (
	"context"
	"errors"
	"time"

	"mindcare/internal/models"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate record")
)

// PatientFilter narrows a patient listing. Nil fields are not applied.
type PatientFilter struct {
	Identifier    *string // case-insensitive substring match
	ConsentGiven  *bool
	CreatedAfter  *time.Time // inclusive
	CreatedBefore *time.Time // inclusive
}

// TherapistStore persists therapist accounts and credentials.
type TherapistStore interface {
	CreateTherapist(ctx context.Context, t *models.Therapist) error
	GetTherapistByID(ctx context.Context, id string) (*models.Therapist, error)
	GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error)
	GetTherapistByResetToken(ctx context.Context, token string) (*models.Therapist, error)
	UpdateTherapist(ctx context.Context, t *models.Therapist) error
	DeleteTherapist(ctx context.Context, id string) error
}

// PatientStore persists patient case records.
type PatientStore interface {
	CreatePatient(ctx context.Context, p *models.Patient) error
	PatientIdentifierExists(ctx context.Context, therapistID, identifier string) (bool, error)
	// ListPatients returns one page of the caller's non-deleted patients,
	// newest first, plus the total match count before pagination.
	ListPatients(ctx context.Context, therapistID string, f PatientFilter, offset, limit int) ([]models.Patient, int64, error)
}

// AuditStore appends audit log entries.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, e *models.AuditLog) error
}

// Store is the full persistence surface.
type Store interface {
	TherapistStore
	PatientStore
	AuditStore
}
