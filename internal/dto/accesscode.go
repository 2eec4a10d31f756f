package dto

import (
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"
)

type CreateAccessCodeRequest struct {
	BuildingID  domain.BuildingID  `json:"buildingId"`
	IntercomID  *domain.IntercomID `json:"intercomId,omitempty"`
	Secret      string             `json:"secret"`
	ExpiresAt   *time.Time         `json:"expiresAt,omitempty"`
	IsSingleUse bool               `json:"isSingleUse"`
}

// UpdateAccessCodeRequest carries optional fields; nil means "leave as is".
type UpdateAccessCodeRequest struct {
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsSingleUse *bool      `json:"isSingleUse,omitempty"`
}

type AccessCodeResponse struct {
	ID          uuid.UUID  `json:"id"`
	BuildingID  uuid.UUID  `json:"buildingId"`
	IntercomID  *uuid.UUID `json:"intercomId,omitempty"`
	IsSingleUse bool       `json:"isSingleUse"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type AccessCodeQuery struct {
	BuildingID *domain.BuildingID
	IntercomID *domain.IntercomID
	Page       int
	PageSize   int
}

// Page is the shared list envelope for the reporting surface.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func NewAccessCodeResponse(c *domain.AccessCode) AccessCodeResponse {
	return AccessCodeResponse{
		ID:          c.ID,
		BuildingID:  c.BuildingID,
		IntercomID:  c.IntercomID,
		IsSingleUse: c.IsSingleUse,
		ExpiresAt:   c.ExpiresAt,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
}

func NewAccessLogResponse(l *domain.AccessLog) AccessLogResponse {
	return AccessLogResponse{
		ID:              l.ID,
		IntercomID:      l.IntercomID,
		UserID:          l.UserID,
		CredentialType:  string(l.CredentialType),
		CredentialRefID: l.CredentialRefID,
		IsSuccess:       l.IsSuccess,
		Reason:          l.Reason,
		OccurredAt:      l.OccurredAt,
		IPAddress:       l.IPAddress,
		DeviceInfo:      l.DeviceInfo,
	}
}
