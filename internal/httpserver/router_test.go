package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/httpserver"
	"mindcare/internal/models"
	"mindcare/internal/store"
)

// fakeStore is just enough store.Store for a signup/login/me/patients flow.
type fakeStore struct {
	mu         sync.Mutex
	therapists map[string]*models.Therapist
	patients   []models.Patient
	audits     []models.AuditLog
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{therapists: map[string]*models.Therapist{}}
}

func (f *fakeStore) id() string {
	f.nextID++
	return string(rune('a' + f.nextID - 1))
}

func (f *fakeStore) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.therapists {
		if e.Email == t.Email {
			return store.ErrDuplicate
		}
	}
	t.ID = f.id()
	t.CreatedAt = time.Now().UTC()
	cp := *t
	f.therapists[t.ID] = &cp
	return nil
}

func (f *fakeStore) GetTherapistByID(ctx context.Context, id string) (*models.Therapist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.therapists[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetTherapistByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.therapists {
		if t.Email == email {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetTherapistByResetToken(ctx context.Context, token string) (*models.Therapist, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpdateTherapist(ctx context.Context, t *models.Therapist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.therapists[t.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteTherapist(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.therapists, id)
	return nil
}

func (f *fakeStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.patients {
		if e.TherapistID == p.TherapistID && e.Identifier == p.Identifier {
			return store.ErrDuplicate
		}
	}
	p.ID = f.id()
	p.CreatedAt = time.Now().UTC()
	f.patients = append(f.patients, *p)
	return nil
}

func (f *fakeStore) PatientIdentifierExists(ctx context.Context, therapistID, identifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.patients {
		if e.TherapistID == therapistID && e.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListPatients(ctx context.Context, therapistID string, _ store.PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Patient
	for _, e := range f.patients {
		if e.TherapistID == therapistID && !e.IsDeleted {
			out = append(out, e)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	if offset+limit < len(out) {
		out = out[offset : offset+limit]
	} else {
		out = out[offset:]
	}
	return out, total, nil
}

func (f *fakeStore) CreateAuditLog(ctx context.Context, e *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *e)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	st := newFakeStore()
	lg := zap.NewNop().Sugar()
	tokens := auth.NewTokenService("router-test-secret", time.Minute)
	hasher := auth.NewHasher(bcrypt.MinCost)
	rec := audit.NewRecorder(st, lg)
	srv := httptest.NewServer(httpserver.NewRouter(st, tokens, hasher, rec, lg))
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, url, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res, decodeJSON(t, res)
}

func get(t *testing.T, url, bearer string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res, decodeJSON(t, res)
}

func decodeJSON(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

func TestRouterEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	// open endpoints need no token
	res, _ := post(t, srv.URL+"/api/v1/signup", "", map[string]any{
		"email": "a@x.com", "full_name": "Dr. A",
		"password": "longenough1", "confirm_password": "longenough1",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := post(t, srv.URL+"/api/v1/login", "", map[string]any{
		"email": "a@x.com", "password": "longenough1",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	// protected routes reject a missing token
	res, _ = get(t, srv.URL+"/api/v1/me/", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body = get(t, srv.URL+"/api/v1/me/", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "a@x.com", body["email"])

	res, _ = post(t, srv.URL+"/api/v1/patients/", token, map[string]any{"identifier": "P001"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = post(t, srv.URL+"/api/v1/patients/", token, map[string]any{"identifier": "P001"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = get(t, srv.URL+"/api/v1/patients/", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	res, body = get(t, srv.URL+"/api/v1/refresh-token", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["access_token"])

	res, _ = post(t, srv.URL+"/api/v1/logout", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
