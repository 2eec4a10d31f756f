package impl

import (
	"context"
	"errors"

	"intercom/internal/domain"
	"intercom/internal/dto"
	"intercom/internal/service"
	"intercom/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type credentialWriter interface {
	SupersedeMasterPin(ctx context.Context, pin *domain.MasterPin) error
	SupersedeUserPin(ctx context.Context, pin *domain.UserPin) error
	DeactivateUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID) error
	CreateTemporaryPin(ctx context.Context, pin *domain.TemporaryPin) error
	GetTemporaryPin(ctx context.Context, id domain.CredentialID) (*domain.TemporaryPin, error)
	DeactivateTemporaryPin(ctx context.Context, id domain.CredentialID) error
	CreateAccessCode(ctx context.Context, code *domain.AccessCode) error
	GetAccessCode(ctx context.Context, id domain.CredentialID) (*domain.AccessCode, error)
	UpdateAccessCode(ctx context.Context, id domain.CredentialID, fields map[string]any) error
	DeactivateAccessCode(ctx context.Context, id domain.CredentialID) error
	DeleteAccessCode(ctx context.Context, id domain.CredentialID) error
	ListAccessCodes(ctx context.Context, q dto.AccessCodeQuery) ([]domain.AccessCode, int64, error)
}

type directoryReader interface {
	GetBuilding(ctx context.Context, id domain.BuildingID) (*domain.Building, error)
	GetIntercom(ctx context.Context, id domain.IntercomID) (*domain.Intercom, error)
}

type auditLister interface {
	List(ctx context.Context, q dto.AccessLogQuery) ([]domain.AccessLog, int64, error)
}

type CredentialServiceImpl struct {
	creds     credentialWriter
	directory directoryReader
	logs      auditLister
	hasher    service.HashingService
}

func NewCredentialServiceImpl(st *store.Store, hasher service.HashingService) *CredentialServiceImpl {
	return &CredentialServiceImpl{
		creds:     st.Credentials(),
		directory: st.Directory(),
		logs:      st.AccessLogs(),
		hasher:    hasher,
	}
}

var _ service.CredentialService = (*CredentialServiceImpl)(nil)

func (s *CredentialServiceImpl) intercomBuilding(ctx context.Context, intercomID domain.IntercomID) (*domain.Intercom, error) {
	ic, err := s.directory.GetIntercom(ctx, intercomID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrIntercomNotFound
		}
		return nil, err
	}
	return ic, nil
}

func (s *CredentialServiceImpl) SetMasterPin(ctx context.Context, intercomID domain.IntercomID, req dto.SetMasterPinRequest, actor domain.Actor) (*dto.MasterPinResponse, error) {
	if req.Secret == "" {
		return nil, domain.ErrEmptySecret
	}
	ic, err := s.intercomBuilding(ctx, intercomID)
	if err != nil {
		return nil, err
	}
	if !actor.ManagesBuilding(ic.BuildingID) {
		return nil, domain.ErrNotAllowed
	}

	hash, err := s.hasher.Hash(req.Secret)
	if err != nil {
		return nil, err
	}
	pin := &domain.MasterPin{
		IntercomID: intercomID,
		PinHash:    hash,
		CreatedBy:  actor.UserID,
	}
	if err := s.creds.SupersedeMasterPin(ctx, pin); err != nil {
		return nil, err
	}
	out := dto.NewMasterPinResponse(pin)
	return &out, nil
}

func (s *CredentialServiceImpl) SetUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID, req dto.SetUserPinRequest, actor domain.Actor) (*dto.UserPinResponse, error) {
	if req.Secret == "" {
		return nil, domain.ErrEmptySecret
	}
	ic, err := s.intercomBuilding(ctx, intercomID)
	if err != nil {
		return nil, err
	}
	// A user may set their own pin; staff and admins may set anyone's.
	if actor.UserID != userID && !actor.ManagesBuilding(ic.BuildingID) {
		return nil, domain.ErrNotAllowed
	}

	hash, err := s.hasher.Hash(req.Secret)
	if err != nil {
		return nil, err
	}
	pin := &domain.UserPin{
		IntercomID: intercomID,
		UserID:     userID,
		PinHash:    hash,
	}
	if err := s.creds.SupersedeUserPin(ctx, pin); err != nil {
		return nil, err
	}
	out := dto.NewUserPinResponse(pin)
	return &out, nil
}

func (s *CredentialServiceImpl) RevokeUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID, actor domain.Actor) error {
	ic, err := s.intercomBuilding(ctx, intercomID)
	if err != nil {
		return err
	}
	if actor.UserID != userID && !actor.ManagesBuilding(ic.BuildingID) {
		return domain.ErrNotAllowed
	}
	if err := s.creds.DeactivateUserPin(ctx, intercomID, userID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrCredentialNotFound
		}
		return err
	}
	return nil
}

func (s *CredentialServiceImpl) CreateTemporaryPin(ctx context.Context, intercomID domain.IntercomID, req dto.CreateTemporaryPinRequest, actor domain.Actor) (*dto.TemporaryPinResponse, error) {
	if req.Secret == "" {
		return nil, domain.ErrEmptySecret
	}
	if !req.ExpiresAt.After(nowUTC()) {
		return nil, domain.ErrInvalidExpiry
	}
	if req.MaxUses < 1 {
		return nil, domain.ErrInvalidMaxUses
	}
	if _, err := s.intercomBuilding(ctx, intercomID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Secret)
	if err != nil {
		return nil, err
	}
	pin := &domain.TemporaryPin{
		IntercomID: intercomID,
		CreatedBy:  actor.UserID,
		PinHash:    hash,
		ExpiresAt:  req.ExpiresAt.UTC(),
		MaxUses:    req.MaxUses,
	}
	if err := s.creds.CreateTemporaryPin(ctx, pin); err != nil {
		return nil, err
	}
	out := dto.NewTemporaryPinResponse(pin)
	return &out, nil
}

func (s *CredentialServiceImpl) RevokeTemporaryPin(ctx context.Context, id domain.CredentialID, actor domain.Actor) error {
	pin, err := s.creds.GetTemporaryPin(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrCredentialNotFound
		}
		return err
	}
	ic, err := s.intercomBuilding(ctx, pin.IntercomID)
	if err != nil {
		return err
	}
	if actor.UserID != pin.CreatedBy && !actor.ManagesBuilding(ic.BuildingID) {
		return domain.ErrNotAllowed
	}
	if err := s.creds.DeactivateTemporaryPin(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrCredentialNotFound
		}
		return err
	}
	return nil
}

func (s *CredentialServiceImpl) CreateAccessCode(ctx context.Context, req dto.CreateAccessCodeRequest, actor domain.Actor) (*dto.AccessCodeResponse, error) {
	if req.Secret == "" {
		return nil, domain.ErrEmptySecret
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(nowUTC()) {
		return nil, domain.ErrInvalidExpiry
	}
	if _, err := s.directory.GetBuilding(ctx, req.BuildingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrBuildingNotFound
		}
		return nil, err
	}
	if req.IntercomID != nil {
		ic, err := s.intercomBuilding(ctx, *req.IntercomID)
		if err != nil {
			return nil, err
		}
		if ic.BuildingID != req.BuildingID {
			return nil, domain.ErrIntercomNotFound
		}
	}

	hash, err := s.hasher.Hash(req.Secret)
	if err != nil {
		return nil, err
	}
	code := &domain.AccessCode{
		BuildingID:  req.BuildingID,
		IntercomID:  req.IntercomID,
		CodeHash:    hash,
		IsSingleUse: req.IsSingleUse,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   actor.UserID,
	}
	if err := s.creds.CreateAccessCode(ctx, code); err != nil {
		return nil, err
	}
	out := dto.NewAccessCodeResponse(code)
	return &out, nil
}

// canManageCode: creators always manage their own codes; building staff
// manage codes within their buildings; admins manage everything.
func canManageCode(actor domain.Actor, code *domain.AccessCode) bool {
	return actor.UserID == code.CreatedBy || actor.ManagesBuilding(code.BuildingID)
}

func (s *CredentialServiceImpl) getManagedCode(ctx context.Context, id domain.CredentialID, actor domain.Actor) (*domain.AccessCode, error) {
	code, err := s.creds.GetAccessCode(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, err
	}
	if !canManageCode(actor, code) {
		return nil, domain.ErrNotAllowed
	}
	return code, nil
}

func (s *CredentialServiceImpl) UpdateAccessCode(ctx context.Context, id domain.CredentialID, req dto.UpdateAccessCodeRequest, actor domain.Actor) (*dto.AccessCodeResponse, error) {
	if _, err := s.getManagedCode(ctx, id, actor); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(nowUTC()) {
			return nil, domain.ErrInvalidExpiry
		}
		fields["expires_at"] = *req.ExpiresAt
	}
	if req.IsSingleUse != nil {
		fields["is_single_use"] = *req.IsSingleUse
	}
	if len(fields) > 0 {
		if err := s.creds.UpdateAccessCode(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	code, err := s.creds.GetAccessCode(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewAccessCodeResponse(code)
	return &out, nil
}

func (s *CredentialServiceImpl) DeactivateAccessCode(ctx context.Context, id domain.CredentialID, actor domain.Actor) error {
	if _, err := s.getManagedCode(ctx, id, actor); err != nil {
		return err
	}
	return s.creds.DeactivateAccessCode(ctx, id)
}

func (s *CredentialServiceImpl) DeleteAccessCode(ctx context.Context, id domain.CredentialID, actor domain.Actor) error {
	if _, err := s.getManagedCode(ctx, id, actor); err != nil {
		return err
	}
	return s.creds.DeleteAccessCode(ctx, id)
}

func (s *CredentialServiceImpl) ListAccessCodes(ctx context.Context, q dto.AccessCodeQuery, actor domain.Actor) (*dto.Page[dto.AccessCodeResponse], error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		if q.BuildingID == nil || !actor.ManagesBuilding(*q.BuildingID) {
			return nil, domain.ErrNotAllowed
		}
	default:
		return nil, domain.ErrNotAllowed
	}
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)

	codes, total, err := s.creds.ListAccessCodes(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AccessCodeResponse, 0, len(codes))
	for i := range codes {
		items = append(items, dto.NewAccessCodeResponse(&codes[i]))
	}
	return &dto.Page[dto.AccessCodeResponse]{Items: items, Page: q.Page, PageSize: q.PageSize, Total: total}, nil
}

func (s *CredentialServiceImpl) ListAccessLogs(ctx context.Context, q dto.AccessLogQuery, actor domain.Actor) (*dto.Page[dto.AccessLogResponse], error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		// Staff browse per intercom within their buildings.
		if q.IntercomID == nil {
			return nil, domain.ErrNotAllowed
		}
		ic, err := s.intercomBuilding(ctx, *q.IntercomID)
		if err != nil {
			return nil, err
		}
		if !actor.ManagesBuilding(ic.BuildingID) {
			return nil, domain.ErrNotAllowed
		}
	default:
		return nil, domain.ErrNotAllowed
	}
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)

	logs, total, err := s.logs.List(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AccessLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, dto.NewAccessLogResponse(&logs[i]))
	}
	return &dto.Page[dto.AccessLogResponse]{Items: items, Page: q.Page, PageSize: q.PageSize, Total: total}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
