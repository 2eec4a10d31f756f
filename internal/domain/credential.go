package domain

import "time"

// MasterPin is the shared per-intercom staff secret. Rotation supersedes: the
// prior active row is deactivated and a new row inserted, so hash history is
// never overwritten in place. The partial unique index keeps at most one
// active row per intercom.
type MasterPin struct {
	ID         CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	IntercomID IntercomID   `gorm:"type:uuid;not null;index:ix_master_pins_intercom;uniqueIndex:ux_master_pins_active,where:is_active" db:"intercom_id"`
	PinHash    string       `gorm:"type:text;not null" db:"pin_hash"`
	IsActive   bool         `gorm:"not null;default:true" db:"is_active"`
	CreatedBy  UserID       `gorm:"type:uuid;not null" db:"created_by"`
	CreatedAt  time.Time    `gorm:"not null" db:"created_at"`
	UpdatedBy  *UserID      `gorm:"type:uuid" db:"updated_by"`
	UpdatedAt  time.Time    `gorm:"not null" db:"updated_at"`
}

func (MasterPin) TableName() string { return "master_pins" }

// UserPin is a persistent personal secret bound to one user and one intercom.
// One live pin per (intercom, user); superseded rows stay for history.
type UserPin struct {
	ID         CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	IntercomID IntercomID   `gorm:"type:uuid;not null;index:ix_user_pins_intercom;uniqueIndex:ux_user_pins_active,where:is_active" db:"intercom_id"`
	UserID     UserID       `gorm:"type:uuid;not null;uniqueIndex:ux_user_pins_active,where:is_active" db:"user_id"`
	PinHash    string       `gorm:"type:text;not null" db:"pin_hash"`
	IsActive   bool         `gorm:"not null;default:true" db:"is_active"`
	CreatedAt  time.Time    `gorm:"not null" db:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" db:"updated_at"`
}

func (UserPin) TableName() string { return "user_pins" }

// TemporaryPin is a guest secret with an absolute expiry and a usage budget.
// IsActive flips only on explicit revoke. Exhaustion is derived from
// uses_count/expires_at so concurrent checks never trust a stale flag.
type TemporaryPin struct {
	ID          CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	IntercomID  IntercomID   `gorm:"type:uuid;not null;index:ix_temporary_pins_intercom" db:"intercom_id"`
	CreatedBy   UserID       `gorm:"type:uuid;not null" db:"created_by"`
	PinHash     string       `gorm:"type:text;not null" db:"pin_hash"`
	ExpiresAt   time.Time    `gorm:"not null" db:"expires_at"`
	MaxUses     int          `gorm:"not null" db:"max_uses"`
	UsesCount   int          `gorm:"not null;default:0" db:"uses_count"`
	FirstUsedAt *time.Time   `db:"first_used_at"`
	LastUsedAt  *time.Time   `db:"last_used_at"`
	IsActive    bool         `gorm:"not null;default:true" db:"is_active"`
	CreatedAt   time.Time    `gorm:"not null" db:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" db:"updated_at"`
}

func (TemporaryPin) TableName() string { return "temporary_pins" }

// Exhausted reports whether the pin can no longer grant access, regardless of
// the stored IsActive flag.
func (p *TemporaryPin) Exhausted(now time.Time) bool {
	return now.After(p.ExpiresAt) || p.UsesCount >= p.MaxUses
}

// TemporaryPinUsage is one append-only row per successful use of a temporary
// pin. Rows never exceed the pin's MaxUses.
type TemporaryPinUsage struct {
	ID             CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	TemporaryPinID CredentialID `gorm:"type:uuid;not null;index:ix_temporary_pin_usages_pin" db:"temporary_pin_id"`
	UsedAt         time.Time    `gorm:"not null" db:"used_at"`
	UsedFromIP     string       `gorm:"type:text" db:"used_from_ip"`
	DeviceInfo     string       `gorm:"type:text" db:"device_info"`
}

func (TemporaryPinUsage) TableName() string { return "temporary_pin_usages" }

// AccessCode is a building- or intercom-scoped secret independent of any
// user. A nil IntercomID widens scope to every intercom in the building.
type AccessCode struct {
	ID          CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	BuildingID  BuildingID   `gorm:"type:uuid;not null;index:ix_access_codes_building" db:"building_id"`
	IntercomID  *IntercomID  `gorm:"type:uuid;index:ix_access_codes_intercom" db:"intercom_id"`
	CodeHash    string       `gorm:"type:text;not null" db:"code_hash"`
	IsSingleUse bool         `gorm:"not null;default:false" db:"is_single_use"`
	ExpiresAt   *time.Time   `db:"expires_at"`
	IsActive    bool         `gorm:"not null;default:true" db:"is_active"`
	CreatedBy   UserID       `gorm:"type:uuid;not null" db:"created_by"`
	CreatedAt   time.Time    `gorm:"not null" db:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" db:"updated_at"`
}

func (AccessCode) TableName() string { return "access_codes" }

// Expired reports whether the code's optional expiry has passed.
func (c *AccessCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
