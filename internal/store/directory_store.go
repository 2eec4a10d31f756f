package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"

	"gorm.io/gorm"
)

type DirectoryStore struct{ db *gorm.DB }

func (s *Store) Directory() *DirectoryStore { return &DirectoryStore{s.DB} }

func (d *DirectoryStore) CreateBuilding(ctx context.Context, b *domain.Building) error {
	now := time.Now().UTC()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return translate(d.db.WithContext(ctx).Create(b).Error)
}

func (d *DirectoryStore) GetBuilding(ctx context.Context, id domain.BuildingID) (*domain.Building, error) {
	var out domain.Building
	if err := d.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (d *DirectoryStore) CreateIntercom(ctx context.Context, ic *domain.Intercom) error {
	now := time.Now().UTC()
	if ic.ID == uuid.Nil {
		ic.ID = uuid.New()
	}
	if ic.CreatedAt.IsZero() {
		ic.CreatedAt = now
	}
	ic.UpdatedAt = now
	return translate(d.db.WithContext(ctx).Create(ic).Error)
}

func (d *DirectoryStore) GetIntercom(ctx context.Context, id domain.IntercomID) (*domain.Intercom, error) {
	var out domain.Intercom
	if err := d.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (d *DirectoryStore) ListIntercoms(ctx context.Context, buildingID domain.BuildingID) ([]domain.Intercom, error) {
	var out []domain.Intercom
	err := d.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}
