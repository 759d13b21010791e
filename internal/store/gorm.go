package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mindcare/internal/models"
)

// GormStore implements Store on a gorm connection. Requires the connection
// to be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	return mapErr(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) GetTherapistByID(ctx context.Context, id string) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *GormStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.db.WithContext(ctx).First(&t, "email = ?", email).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *GormStore) GetTherapistByResetToken(ctx context.Context, token string) (*models.Therapist, error) {
	var t models.Therapist
	if err := s.db.WithContext(ctx).First(&t, "password_reset_token = ?", token).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *GormStore) UpdateTherapist(ctx context.Context, t *models.Therapist) error {
	t.UpdatedAt = time.Now().UTC()
	// Save writes all fields in one UPDATE, so a password change and the
	// reset-token clear land together.
	return mapErr(s.db.WithContext(ctx).Save(t).Error)
}

func (s *GormStore) DeleteTherapist(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Therapist{}, "id = ?", id)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) PatientIdentifierExists(ctx context.Context, therapistID, identifier string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Patient{}).
		Where("therapist_id = ? AND identifier = ?", therapistID, identifier).
		Count(&count).Error
	return count > 0, mapErr(err)
}

func (s *GormStore) ListPatients(ctx context.Context, therapistID string, f PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Patient{}).
		Where("therapist_id = ? AND is_deleted = ?", therapistID, false)

	if f.Identifier != nil && *f.Identifier != "" {
		q = q.Where("identifier ILIKE ?", "%"+*f.Identifier+"%")
	}
	if f.ConsentGiven != nil {
		q = q.Where("consent_given = ?", *f.ConsentGiven)
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *f.CreatedBefore)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr(err)
	}

	var patients []models.Patient
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&patients).Error
	if err != nil {
		return nil, 0, mapErr(err)
	}
	return patients, total, nil
}

func (s *GormStore) CreateAuditLog(ctx context.Context, e *models.AuditLog) error {
	return mapErr(s.db.WithContext(ctx).Create(e).Error)
}
