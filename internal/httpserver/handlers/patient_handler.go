package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mindcare/internal/apperr"
	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/models"
	"mindcare/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type patientListResp struct {
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int64            `json:"total_pages"`
	Patients   []models.Patient `json:"patients"`
}

func parseListQuery(r *http.Request) (page, pageSize int, f store.PatientFilter, err *apperr.Error) {
	q := r.URL.Query()
	page, pageSize = 1, defaultPageSize
	if s := q.Get("page"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 {
			return 0, 0, f, apperr.New(apperr.Validation, "page must be an integer >= 1")
		}
		page = n
	}
	if s := q.Get("page_size"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 || n > maxPageSize {
			return 0, 0, f, apperr.New(apperr.Validation, "page_size must be between 1 and 100")
		}
		pageSize = n
	}
	if s := q.Get("identifier"); s != "" {
		f.Identifier = &s
	}
	if s := q.Get("consent_given"); s != "" {
		b, convErr := strconv.ParseBool(s)
		if convErr != nil {
			return 0, 0, f, apperr.New(apperr.Validation, "consent_given must be a boolean")
		}
		f.ConsentGiven = &b
	}
	if s := q.Get("created_after"); s != "" {
		ts, convErr := time.Parse(time.RFC3339, s)
		if convErr != nil {
			return 0, 0, f, apperr.New(apperr.Validation, "created_after must be an RFC3339 timestamp")
		}
		f.CreatedAfter = &ts
	}
	if s := q.Get("created_before"); s != "" {
		ts, convErr := time.Parse(time.RFC3339, s)
		if convErr != nil {
			return 0, 0, f, apperr.New(apperr.Validation, "created_before must be an RFC3339 timestamp")
		}
		f.CreatedBefore = &ts
	}
	return page, pageSize, f, nil
}

// ListPatients returns one page of the caller's patients, newest first.
// A page past the end is not an error; it returns an empty slice.
func ListPatients(st store.PatientStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize, filter, verr := parseListQuery(r)
		if verr != nil {
			respondError(w, verr)
			return
		}
		t := auth.TherapistFromContext(r.Context())
		offset := (page - 1) * pageSize
		patients, total, err := st.ListPatients(r.Context(), t.ID, filter, offset, pageSize)
		if err != nil {
			lg.Errorw("patient list failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		var totalPages int64
		if total > 0 {
			totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
		}
		if patients == nil {
			patients = []models.Patient{}
		}
		respondJSON(w, patientListResp{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
			Patients:   patients,
		})
	}
}

type createPatientReq struct {
	Identifier  string     `json:"identifier"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// CreatePatient registers a case record under the caller. Consent is never
// captured here: consent_given persists false with no timestamp or ip.
func CreatePatient(st store.PatientStore, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPatientReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.New(apperr.Validation, "invalid request body"))
			return
		}
		if req.Identifier == "" {
			respondError(w, apperr.New(apperr.Validation, "identifier required"))
			return
		}
		t := auth.TherapistFromContext(r.Context())
		exists, err := st.PatientIdentifierExists(r.Context(), t.ID, req.Identifier)
		if err != nil {
			lg.Errorw("patient lookup failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		if exists {
			respondError(w, apperr.New(apperr.Conflict, "Patient with this identifier already exists"))
			return
		}
		p := models.Patient{
			Identifier:  req.Identifier,
			DateOfBirth: req.DateOfBirth,
			TherapistID: t.ID,
		}
		if err := st.CreatePatient(r.Context(), &p); err != nil {
			// Lost the race with a concurrent insert; the unique index decided.
			if err == store.ErrDuplicate {
				respondError(w, apperr.New(apperr.Conflict, "Patient with this identifier already exists"))
				return
			}
			lg.Errorw("patient create failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		lg.Infow("patient created", "therapist_id", t.ID, "patient_id", p.ID)
		rec.Record(r, t.ID, t.Email, audit.ActionPatientCreate, "patient", p.ID, map[string]any{"identifier": p.Identifier})
		respondJSON(w, p)
	}
}
