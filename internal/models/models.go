package models

import "time"

// Therapist is the authenticated account. Owns Patients and Sessions.
type Therapist struct {
	ID                  string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email               string  `gorm:"uniqueIndex;not null" json:"email"`
	FullName            string  `gorm:"not null" json:"full_name"`
	ProfessionalLicense *string `json:"professional_license,omitempty"`
	HashedPassword      string  `gorm:"not null" json:"-"`
	Role                string  `gorm:"not null;default:therapist" json:"role"`

	PasswordResetToken          *string    `gorm:"index" json:"-"`
	PasswordResetTokenExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Patient is a therapist's case record. (therapist_id, identifier) is unique;
// the index below is the final arbiter, handler checks are advisory.
type Patient struct {
	ID          string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Identifier  string     `gorm:"not null;uniqueIndex:uniq_patient_per_therapist" json:"identifier"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`

	ConsentGiven     bool       `gorm:"not null;default:false" json:"consent_given"`
	ConsentTimestamp *time.Time `json:"consent_timestamp,omitempty"`
	ConsentIP        *string    `json:"consent_ip,omitempty"`

	TherapistID string `gorm:"type:uuid;not null;uniqueIndex:uniq_patient_per_therapist;index" json:"therapist_id"`

	IsDeleted bool       `gorm:"not null;default:false" json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Session is a recorded therapy session. Schema only for now: the audio
// processing pipeline that drives processing_status lives outside this
// service and no producer exists yet.
type Session struct {
	ID          string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TherapistID string `gorm:"type:uuid;not null;index" json:"therapist_id"`
	PatientID   string `gorm:"type:uuid;not null;index" json:"patient_id"`

	SessionDate            time.Time `gorm:"not null;index" json:"session_date"`
	SessionDurationMinutes int       `gorm:"not null" json:"session_duration_minutes"`

	ProcessingStatus string `gorm:"not null;default:pending;index" json:"processing_status"`
	JobID            string `json:"job_id"`

	AudioMetadata JSONB `gorm:"type:jsonb;default:'{}'::jsonb" json:"audio_metadata"`
	Summary       JSONB `gorm:"type:jsonb;default:'{}'::jsonb" json:"summary"`

	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time `json:"processing_completed_at,omitempty"`

	IsDeleted bool       `gorm:"not null;default:false" json:"-"`
	DeletedAt *time.Time `json:"-"`
	Version   int        `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProcessingError records a failed processing attempt for a Session. The
// landing table for the future processing worker; nothing writes it yet.
type ProcessingError struct {
	ID        string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID string `gorm:"type:uuid;not null;index" json:"session_id"`
	JobID     string `gorm:"not null" json:"job_id"`

	ErrorType    string `gorm:"not null" json:"error_type"`
	ErrorMessage string `gorm:"not null" json:"error_message"`
	ErrorStack   string `gorm:"not null" json:"error_stack"`

	RetryCount  int        `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries  int        `gorm:"not null;default:3" json:"max_retries"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	IsResolved bool       `gorm:"not null;default:false" json:"is_resolved"`
}

// AuditLog is an append-only record of an action taken against a resource.
type AuditLog struct {
	ID        string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	UserEmail string `gorm:"not null" json:"user_email"`

	Action       string `gorm:"not null;index" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`

	Details JSONB `gorm:"type:jsonb;default:'{}'::jsonb" json:"details"`

	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	RequestID string    `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}
