package service

import (
	"context"

	"intercom/internal/domain"
	"intercom/internal/dto"
)

// CredentialService is the management surface: credential lifecycle plus the
// read-only reporting endpoints. Every operation is authorization-checked
// against the acting caller.
type CredentialService interface {
	SetMasterPin(ctx context.Context, intercomID domain.IntercomID, req dto.SetMasterPinRequest, actor domain.Actor) (*dto.MasterPinResponse, error)

	SetUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID, req dto.SetUserPinRequest, actor domain.Actor) (*dto.UserPinResponse, error)
	RevokeUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID, actor domain.Actor) error

	CreateTemporaryPin(ctx context.Context, intercomID domain.IntercomID, req dto.CreateTemporaryPinRequest, actor domain.Actor) (*dto.TemporaryPinResponse, error)
	RevokeTemporaryPin(ctx context.Context, id domain.CredentialID, actor domain.Actor) error

	CreateAccessCode(ctx context.Context, req dto.CreateAccessCodeRequest, actor domain.Actor) (*dto.AccessCodeResponse, error)
	UpdateAccessCode(ctx context.Context, id domain.CredentialID, req dto.UpdateAccessCodeRequest, actor domain.Actor) (*dto.AccessCodeResponse, error)
	DeactivateAccessCode(ctx context.Context, id domain.CredentialID, actor domain.Actor) error
	DeleteAccessCode(ctx context.Context, id domain.CredentialID, actor domain.Actor) error

	ListAccessCodes(ctx context.Context, q dto.AccessCodeQuery, actor domain.Actor) (*dto.Page[dto.AccessCodeResponse], error)
	ListAccessLogs(ctx context.Context, q dto.AccessLogQuery, actor domain.Actor) (*dto.Page[dto.AccessLogResponse], error)
}

// DirectoryService maintains the building/intercom directory the engine
// resolves against.
type DirectoryService interface {
	CreateBuilding(ctx context.Context, req dto.CreateBuildingRequest, actor domain.Actor) (*domain.Building, error)
	CreateIntercom(ctx context.Context, buildingID domain.BuildingID, req dto.CreateIntercomRequest, actor domain.Actor) (*domain.Intercom, error)
	ListIntercoms(ctx context.Context, buildingID domain.BuildingID, actor domain.Actor) ([]domain.Intercom, error)
}
