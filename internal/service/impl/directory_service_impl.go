package impl

import (
	"context"
	"errors"
	"strings"

	"intercom/internal/domain"
	"intercom/internal/dto"
	"intercom/internal/service"
	"intercom/internal/store"
)

type directoryWriter interface {
	directoryReader
	CreateBuilding(ctx context.Context, b *domain.Building) error
	CreateIntercom(ctx context.Context, ic *domain.Intercom) error
	ListIntercoms(ctx context.Context, buildingID domain.BuildingID) ([]domain.Intercom, error)
}

type DirectoryServiceImpl struct {
	directory directoryWriter
}

func NewDirectoryServiceImpl(st *store.Store) *DirectoryServiceImpl {
	return &DirectoryServiceImpl{directory: st.Directory()}
}

var _ service.DirectoryService = (*DirectoryServiceImpl)(nil)

var errEmptyName = errors.New("name is required")

func (s *DirectoryServiceImpl) CreateBuilding(ctx context.Context, req dto.CreateBuildingRequest, actor domain.Actor) (*domain.Building, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrNotAllowed
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errEmptyName
	}
	b := &domain.Building{Name: name, Address: strings.TrimSpace(req.Address)}
	if err := s.directory.CreateBuilding(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *DirectoryServiceImpl) CreateIntercom(ctx context.Context, buildingID domain.BuildingID, req dto.CreateIntercomRequest, actor domain.Actor) (*domain.Intercom, error) {
	if !actor.ManagesBuilding(buildingID) {
		return nil, domain.ErrNotAllowed
	}
	name := strings.TrimSpace(req.Name)
	serial := strings.TrimSpace(req.SerialNumber)
	if name == "" || serial == "" {
		return nil, errEmptyName
	}
	if _, err := s.directory.GetBuilding(ctx, buildingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrBuildingNotFound
		}
		return nil, err
	}
	ic := &domain.Intercom{
		BuildingID:   buildingID,
		Name:         name,
		SerialNumber: serial,
		Location:     strings.TrimSpace(req.Location),
	}
	if err := s.directory.CreateIntercom(ctx, ic); err != nil {
		return nil, err
	}
	return ic, nil
}

func (s *DirectoryServiceImpl) ListIntercoms(ctx context.Context, buildingID domain.BuildingID, actor domain.Actor) ([]domain.Intercom, error) {
	if !actor.ManagesBuilding(buildingID) {
		return nil, domain.ErrNotAllowed
	}
	return s.directory.ListIntercoms(ctx, buildingID)
}
