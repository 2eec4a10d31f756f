package dto

import (
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"
)

type SetMasterPinRequest struct {
	Secret string `json:"secret"`
}

type MasterPinResponse struct {
	ID         uuid.UUID `json:"id"`
	IntercomID uuid.UUID `json:"intercomId"`
	IsActive   bool      `json:"isActive"`
	CreatedBy  uuid.UUID `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type SetUserPinRequest struct {
	Secret string `json:"secret"`
}

type UserPinResponse struct {
	ID         uuid.UUID `json:"id"`
	IntercomID uuid.UUID `json:"intercomId"`
	UserID     uuid.UUID `json:"userId"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateTemporaryPinRequest struct {
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expiresAt"`
	MaxUses   int       `json:"maxUses"`
}

// TemporaryPinResponse never carries the plaintext back; the secret is shown
// to the issuer once, client-side, at creation time.
type TemporaryPinResponse struct {
	ID          uuid.UUID  `json:"id"`
	IntercomID  uuid.UUID  `json:"intercomId"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	MaxUses     int        `json:"maxUses"`
	UsesCount   int        `json:"usesCount"`
	FirstUsedAt *time.Time `json:"firstUsedAt,omitempty"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewMasterPinResponse(p *domain.MasterPin) MasterPinResponse {
	return MasterPinResponse{
		ID:         p.ID,
		IntercomID: p.IntercomID,
		IsActive:   p.IsActive,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
	}
}

func NewUserPinResponse(p *domain.UserPin) UserPinResponse {
	return UserPinResponse{
		ID:         p.ID,
		IntercomID: p.IntercomID,
		UserID:     p.UserID,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
	}
}

func NewTemporaryPinResponse(p *domain.TemporaryPin) TemporaryPinResponse {
	return TemporaryPinResponse{
		ID:          p.ID,
		IntercomID:  p.IntercomID,
		CreatedBy:   p.CreatedBy,
		ExpiresAt:   p.ExpiresAt,
		MaxUses:     p.MaxUses,
		UsesCount:   p.UsesCount,
		FirstUsedAt: p.FirstUsedAt,
		LastUsedAt:  p.LastUsedAt,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}
