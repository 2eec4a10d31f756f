package domain

import "github.com/google/uuid"

type BuildingID = uuid.UUID
type IntercomID = uuid.UUID
type UserID = uuid.UUID
type CredentialID = uuid.UUID

// Role is the caller role carried in management tokens. Verification itself is
// anonymous; roles only gate the management surface.
type Role string

const (
	RoleResident Role = "resident"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated management caller. Staff are scoped to the
// buildings listed in their token; admins are unscoped.
type Actor struct {
	UserID      UserID
	Role        Role
	BuildingIDs []BuildingID
}

func (a Actor) ManagesBuilding(b BuildingID) bool {
	if a.Role == RoleAdmin {
		return true
	}
	if a.Role != RoleStaff {
		return false
	}
	for _, id := range a.BuildingIDs {
		if id == b {
			return true
		}
	}
	return false
}
