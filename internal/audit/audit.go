package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mindcare/internal/models"
	"mindcare/internal/store"
)

// Actions recorded by the service.
const (
	ActionSignup        = "therapist.signup"
	ActionLogin         = "therapist.login"
	ActionLogout        = "therapist.logout"
	ActionPasswordReset = "therapist.password_reset"
	ActionProfileUpdate = "therapist.profile_update"
	ActionProfileDelete = "therapist.profile_delete"
	ActionPatientCreate = "patient.create"
)

// Recorder appends audit log rows. Recording is best-effort: a failed write
// is logged and never fails the request that triggered it.
type Recorder struct {
	store store.AuditStore
	lg    *zap.SugaredLogger
}

func NewRecorder(s store.AuditStore, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{store: s, lg: lg}
}

// Record writes one entry, pulling actor ip, user agent, and request id
// from the request (RealIP and RequestID middleware must be installed).
func (rec *Recorder) Record(r *http.Request, userID, userEmail, action, resourceType, resourceID string, details map[string]any) {
	if rec == nil {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil || details == nil {
		payload = []byte("{}")
	}
	entry := models.AuditLog{
		UserID:       userID,
		UserEmail:    userEmail,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(payload),
		IPAddress:    r.RemoteAddr,
		UserAgent:    r.UserAgent(),
		RequestID:    middleware.GetReqID(r.Context()),
	}
	if err := rec.store.CreateAuditLog(r.Context(), &entry); err != nil {
		rec.lg.Warnw("audit write failed", "action", action, "user_id", userID, "error", err)
	}
}
