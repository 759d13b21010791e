package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mindcare/internal/apperr"
	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/store"
)

// Me returns the caller's own profile as resolved by the access guard.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, profileOf(auth.TherapistFromContext(r.Context())))
	}
}

type updateMeReq struct {
	Email               string `json:"email"`
	FullName            string `json:"full_name"`
	ProfessionalLicense string `json:"professional_license"`
}

// UpdateMe applies a partial self-update. An empty string means "not
// provided": a field cannot be cleared through this endpoint.
func UpdateMe(st store.TherapistStore, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.New(apperr.Validation, "invalid request body"))
			return
		}
		t := auth.TherapistFromContext(r.Context())
		changed := []string{}
		if req.FullName != "" {
			t.FullName = req.FullName
			changed = append(changed, "full_name")
		}
		if req.ProfessionalLicense != "" {
			lic := req.ProfessionalLicense
			t.ProfessionalLicense = &lic
			changed = append(changed, "professional_license")
		}
		if req.Email != "" {
			t.Email = strings.TrimSpace(strings.ToLower(req.Email))
			changed = append(changed, "email")
		}
		if err := st.UpdateTherapist(r.Context(), t); err != nil {
			if err == store.ErrDuplicate {
				respondError(w, apperr.New(apperr.Conflict, "Email already registered"))
				return
			}
			lg.Errorw("profile update failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		rec.Record(r, t.ID, t.Email, audit.ActionProfileUpdate, "therapist", t.ID, map[string]any{"fields": changed})
		respondJSON(w, profileOf(t))
	}
}

// DeleteMe hard-deletes the caller's account. Owned patients and sessions
// are left to the database's foreign-key policy.
func DeleteMe(st store.TherapistStore, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := auth.TherapistFromContext(r.Context())
		if err := st.DeleteTherapist(r.Context(), t.ID); err != nil {
			if err == store.ErrNotFound {
				respondError(w, apperr.New(apperr.NotFound, "Therapist not found"))
				return
			}
			lg.Errorw("profile delete failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		lg.Infow("therapist deleted", "therapist_id", t.ID)
		rec.Record(r, t.ID, t.Email, audit.ActionProfileDelete, "therapist", t.ID, nil)
		respondJSON(w, map[string]any{"deleted": true})
	}
}
