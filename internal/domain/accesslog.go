package domain

import "time"

// CredentialType identifies which tier granted (or would have granted) access.
type CredentialType string

const (
	CredentialTypeMaster     CredentialType = "master"
	CredentialTypeUser       CredentialType = "user"
	CredentialTypeTemporary  CredentialType = "temporary"
	CredentialTypeAccessCode CredentialType = "access_code"
	CredentialTypeNone       CredentialType = "none"
)

// Internal denial reasons. These are captured only in the audit trail and are
// never echoed to the device.
const (
	ReasonUnknownIntercom      = "unknown_intercom"
	ReasonNoMatchingCredential = "no_matching_credential"
	ReasonStorageError         = "storage_error"
)

// AccessLog is the tamper-evident audit trail: exactly one row per
// verification attempt, success or failure. Rows are never updated or
// deleted.
type AccessLog struct {
	ID              CredentialID   `gorm:"type:uuid;primaryKey" db:"id"`
	IntercomID      IntercomID     `gorm:"type:uuid;not null;index:ix_access_logs_intercom" db:"intercom_id"`
	UserID          *UserID        `gorm:"type:uuid" db:"user_id"`
	CredentialType  CredentialType `gorm:"type:text;not null" db:"credential_type"`
	CredentialRefID *CredentialID  `gorm:"type:uuid" db:"credential_ref_id"`
	IsSuccess       bool           `gorm:"not null" db:"is_success"`
	Reason          string         `gorm:"type:text" db:"reason"`
	OccurredAt      time.Time      `gorm:"not null;index:ix_access_logs_occurred_at" db:"occurred_at"`
	IPAddress       string         `gorm:"type:text" db:"ip_address"`
	DeviceInfo      string         `gorm:"type:text" db:"device_info"`
}

func (AccessLog) TableName() string { return "access_logs" }
