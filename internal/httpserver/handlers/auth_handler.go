package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindcare/internal/apperr"
	"mindcare/internal/audit"
	"mindcare/internal/auth"
	"mindcare/internal/models"
	"mindcare/internal/store"
)

const (
	minPasswordChars = 8
	maxPasswordBytes = 72

	resetTokenTTL = 15 * time.Minute
)

// validateNewPassword enforces the password policy shared by signup and
// reset: at least 8 characters, at most 72 bytes UTF-8, confirmation match.
// Checked before hashing so violations never touch storage.
func validateNewPassword(password, confirm string) *apperr.Error {
	if len([]rune(password)) < minPasswordChars {
		return apperr.New(apperr.Validation, "Password must be at least 8 characters")
	}
	if n := len([]byte(password)); n > maxPasswordBytes {
		return apperr.Newf(apperr.Validation, "Password is too long (%d bytes). Maximum is 72 bytes", n)
	}
	if password != confirm {
		return apperr.New(apperr.Validation, "Passwords do not match")
	}
	return nil
}

type therapistProfile struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FullName            string     `json:"full_name"`
	ProfessionalLicense *string    `json:"professional_license,omitempty"`
	Role                string     `json:"role"`
	IsActive            bool       `json:"is_active"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func profileOf(t *models.Therapist) therapistProfile {
	return therapistProfile{
		ID:                  t.ID,
		Email:               t.Email,
		FullName:            t.FullName,
		ProfessionalLicense: t.ProfessionalLicense,
		Role:                t.Role,
		IsActive:            t.IsActive,
		LastLoginAt:         t.LastLoginAt,
		CreatedAt:           t.CreatedAt,
	}
}

type signupReq struct {
	Email               string  `json:"email"`
	FullName            string  `json:"full_name"`
	ProfessionalLicense *string `json:"professional_license,omitempty"`
	Password            string  `json:"password"`
	ConfirmPassword     string  `json:"confirm_password"`
}

func Signup(st store.TherapistStore, hasher auth.Hasher, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.New(apperr.Validation, "invalid request body"))
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.FullName == "" {
			respondError(w, apperr.New(apperr.Validation, "email and full_name required"))
			return
		}
		if verr := validateNewPassword(req.Password, req.ConfirmPassword); verr != nil {
			respondError(w, verr)
			return
		}
		if _, err := st.GetTherapistByEmail(r.Context(), req.Email); err == nil {
			respondError(w, apperr.New(apperr.Conflict, "Email already registered"))
			return
		} else if err != store.ErrNotFound {
			lg.Errorw("signup lookup failed", "error", err)
			respondError(w, err)
			return
		}
		hash, err := hasher.Hash(req.Password)
		if err != nil {
			lg.Errorw("password hash failed", "error", err)
			respondError(w, err)
			return
		}
		t := models.Therapist{
			Email:               req.Email,
			FullName:            req.FullName,
			ProfessionalLicense: req.ProfessionalLicense,
			HashedPassword:      hash,
			Role:                "therapist",
			IsActive:            true,
		}
		if err := st.CreateTherapist(r.Context(), &t); err != nil {
			// The unique index is the final arbiter of the email check above.
			if err == store.ErrDuplicate {
				respondError(w, apperr.New(apperr.Conflict, "Email already registered"))
				return
			}
			lg.Errorw("signup create failed", "error", err)
			respondError(w, err)
			return
		}
		lg.Infow("therapist signed up", "therapist_id", t.ID)
		rec.Record(r, t.ID, t.Email, audit.ActionSignup, "therapist", t.ID, nil)
		respondJSON(w, profileOf(&t))
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	Therapist   therapistProfile `json:"therapist"`
}

// Login never distinguishes an unknown email from a wrong password.
func Login(st store.TherapistStore, tokens *auth.TokenService, hasher auth.Hasher, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.New(apperr.Validation, "invalid request body"))
			return
		}
		email := strings.TrimSpace(strings.ToLower(req.Email))
		t, err := st.GetTherapistByEmail(r.Context(), email)
		if err != nil || !hasher.Verify(t.HashedPassword, req.Password) {
			if err != nil && err != store.ErrNotFound {
				lg.Errorw("login lookup failed", "error", err)
				respondError(w, err)
				return
			}
			respondError(w, apperr.New(apperr.Unauthorized, "Invalid email or password"))
			return
		}
		now := time.Now().UTC()
		t.LastLoginAt = &now
		if err := st.UpdateTherapist(r.Context(), t); err != nil {
			lg.Errorw("login touch failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		tok, err := tokens.Issue(t.ID)
		if err != nil {
			lg.Errorw("token issue failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		rec.Record(r, t.ID, t.Email, audit.ActionLogin, "therapist", t.ID, nil)
		respondJSON(w, loginResp{AccessToken: tok, TokenType: "Bearer", Therapist: profileOf(t)})
	}
}

// Logout only touches last_login_at. Tokens are stateless and stay valid
// until natural expiry.
func Logout(st store.TherapistStore, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := auth.TherapistFromContext(r.Context())
		now := time.Now().UTC()
		t.LastLoginAt = &now
		if err := st.UpdateTherapist(r.Context(), t); err != nil {
			lg.Errorw("logout touch failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		rec.Record(r, t.ID, t.Email, audit.ActionLogout, "therapist", t.ID, nil)
		respondJSON(w, profileOf(t))
	}
}

// RefreshToken reissues a token for the already-authenticated caller.
func RefreshToken(tokens *auth.TokenService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := auth.TherapistFromContext(r.Context())
		tok, err := tokens.Issue(t.ID)
		if err != nil {
			lg.Errorw("token issue failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]string{"token_type": "Bearer", "access_token": tok})
	}
}

// ForgotPassword responds Not Found for unknown emails. That leaks account
// existence, unlike login; kept to match the documented contract.
func ForgotPassword(st store.TherapistStore, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			var body struct {
				Email string `json:"email"`
			}
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&body)
			}
			email = strings.TrimSpace(body.Email)
		}
		if email == "" {
			respondError(w, apperr.New(apperr.Validation, "email required"))
			return
		}
		t, err := st.GetTherapistByEmail(r.Context(), strings.ToLower(email))
		if err != nil {
			if err == store.ErrNotFound {
				respondError(w, apperr.New(apperr.NotFound, "Therapist not found"))
				return
			}
			lg.Errorw("forgot-password lookup failed", "error", err)
			respondError(w, err)
			return
		}
		token := uuid.New().String()
		expires := time.Now().UTC().Add(resetTokenTTL)
		t.PasswordResetToken = &token
		t.PasswordResetTokenExpiresAt = &expires
		if err := st.UpdateTherapist(r.Context(), t); err != nil {
			lg.Errorw("reset token store failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		lg.Infow("password reset token issued", "therapist_id", t.ID)
		respondJSON(w, map[string]string{"message": "Password reset email sent"})
	}
}

type resetPasswordReq struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ResetPassword consumes a reset token. An unknown token is Not Found; a
// known token past its expiry is a distinct Validation failure. The new
// hash and the token clear land in the same update, so a used token can
// never be replayed.
func ResetPassword(st store.TherapistStore, hasher auth.Hasher, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.New(apperr.Validation, "invalid request body"))
			return
		}
		if q := r.URL.Query().Get("token"); q != "" {
			req.Token = q
		}
		if req.Token == "" {
			respondError(w, apperr.New(apperr.Validation, "token required"))
			return
		}
		if verr := validateNewPassword(req.NewPassword, req.ConfirmPassword); verr != nil {
			respondError(w, verr)
			return
		}
		t, err := st.GetTherapistByResetToken(r.Context(), req.Token)
		if err != nil {
			if err == store.ErrNotFound {
				respondError(w, apperr.New(apperr.NotFound, "Invalid or expired token"))
				return
			}
			lg.Errorw("reset-password lookup failed", "error", err)
			respondError(w, err)
			return
		}
		if t.PasswordResetTokenExpiresAt != nil && t.PasswordResetTokenExpiresAt.Before(time.Now().UTC()) {
			respondError(w, apperr.New(apperr.Validation, "Token expired"))
			return
		}
		hash, err := hasher.Hash(req.NewPassword)
		if err != nil {
			lg.Errorw("password hash failed", "error", err)
			respondError(w, err)
			return
		}
		t.HashedPassword = hash
		t.PasswordResetToken = nil
		t.PasswordResetTokenExpiresAt = nil
		if err := st.UpdateTherapist(r.Context(), t); err != nil {
			lg.Errorw("password reset failed", "therapist_id", t.ID, "error", err)
			respondError(w, err)
			return
		}
		lg.Infow("password reset", "therapist_id", t.ID)
		rec.Record(r, t.ID, t.Email, audit.ActionPasswordReset, "therapist", t.ID, nil)
		respondJSON(w, map[string]string{"message": "Password reset successfully"})
	}
}
