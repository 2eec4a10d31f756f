package dto

import (
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"
)

// DeniedReason is the only failure reason ever returned to a device. The
// detailed cause lives solely in the audit log, so responses are identical in
// shape whether the secret was wrong, expired, or the intercom unknown.
const DeniedReason = "invalid or expired credential"

type VerifyRequest struct {
	IntercomID domain.IntercomID `json:"intercomId"`
	Secret     string            `json:"secret"`
	IP         string            `json:"-"`
	DeviceInfo string            `json:"deviceInfo,omitempty"`
}

// VerifyResult is the engine's full outcome. Only Granted and Reason are
// exposed to the device; the rest feeds the audit trail and metrics.
type VerifyResult struct {
	Granted         bool
	CredentialType  domain.CredentialType
	CredentialRefID *domain.CredentialID
	UserID          *domain.UserID
	Reason          string
}

type VerifyResponse struct {
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason,omitempty"`
	ServerTime string `json:"serverTime"`
}

type AccessLogResponse struct {
	ID              uuid.UUID  `json:"id"`
	IntercomID      uuid.UUID  `json:"intercomId"`
	UserID          *uuid.UUID `json:"userId,omitempty"`
	CredentialType  string     `json:"credentialType"`
	CredentialRefID *uuid.UUID `json:"credentialRefId,omitempty"`
	IsSuccess       bool       `json:"isSuccess"`
	Reason          string     `json:"reason,omitempty"`
	OccurredAt      time.Time  `json:"occurredAt"`
	IPAddress       string     `json:"ipAddress,omitempty"`
	DeviceInfo      string     `json:"deviceInfo,omitempty"`
}

type AccessLogQuery struct {
	IntercomID *domain.IntercomID
	UserID     *domain.UserID
	Success    *bool
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
