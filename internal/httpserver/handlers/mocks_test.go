package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindcare/internal/models"
	"mindcare/internal/store"
)

// Compile-time check that the fake satisfies the full persistence surface.
var _ store.Store = (*memStore)(nil)

// memStore is an in-memory store.Store with the same observable semantics
// as the gorm implementation, so handler tests can run flows end to end
// without a database.
type memStore struct {
	mu         sync.Mutex
	therapists map[string]*models.Therapist
	patients   []*models.Patient
	audits     []models.AuditLog

	// when set, every call fails with this error
	failWith error
}

func newMemStore() *memStore {
	return &memStore{therapists: map[string]*models.Therapist{}}
}

func (m *memStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.therapists {
		if existing.Email == t.Email {
			return store.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	m.therapists[t.ID] = &cp
	return nil
}

func (m *memStore) GetTherapistByID(ctx context.Context, id string) (*models.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if t, ok := m.therapists[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, t := range m.therapists {
		if t.Email == email {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetTherapistByResetToken(ctx context.Context, token string) (*models.Therapist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, t := range m.therapists {
		if t.PasswordResetToken != nil && *t.PasswordResetToken == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateTherapist(ctx context.Context, t *models.Therapist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.therapists[t.ID]; !ok {
		return store.ErrNotFound
	}
	for _, other := range m.therapists {
		if other.ID != t.ID && other.Email == t.Email {
			return store.ErrDuplicate
		}
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	m.therapists[t.ID] = &cp
	return nil
}

func (m *memStore) DeleteTherapist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.therapists[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.therapists, id)
	return nil
}

func (m *memStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.patients {
		if existing.TherapistID == p.TherapistID && existing.Identifier == p.Identifier {
			return store.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients = append(m.patients, &cp)
	return nil
}

func (m *memStore) PatientIdentifierExists(ctx context.Context, therapistID, identifier string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	for _, p := range m.patients {
		if p.TherapistID == therapistID && p.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListPatients(ctx context.Context, therapistID string, f store.PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	var matched []models.Patient
	for _, p := range m.patients {
		if p.TherapistID != therapistID || p.IsDeleted {
			continue
		}
		if f.Identifier != nil && !strings.Contains(strings.ToLower(p.Identifier), strings.ToLower(*f.Identifier)) {
			continue
		}
		if f.ConsentGiven != nil && p.ConsentGiven != *f.ConsentGiven {
			continue
		}
		if f.CreatedAfter != nil && p.CreatedAt.Before(*f.CreatedAfter) {
			continue
		}
		if f.CreatedBefore != nil && p.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memStore) CreateAuditLog(ctx context.Context, e *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()
	m.audits = append(m.audits, *e)
	return nil
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
