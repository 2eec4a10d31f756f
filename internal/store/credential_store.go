package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"
	"intercom/internal/dto"

	"gorm.io/gorm"
)

type CredentialStore struct{ db *gorm.DB }

func (s *Store) Credentials() *CredentialStore { return &CredentialStore{s.DB} }

// --- master pins ---

// SupersedeMasterPin deactivates the current active master pin (if any) and
// inserts the new row in one transaction. History is preserved; the hash of a
// superseded row is never touched.
func (cs *CredentialStore) SupersedeMasterPin(ctx context.Context, pin *domain.MasterPin) error {
	now := time.Now().UTC()
	if pin.ID == uuid.Nil {
		pin.ID = uuid.New()
	}
	pin.IsActive = true
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = now
	}
	pin.UpdatedAt = now

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.MasterPin{}).
			Where("intercom_id = ? AND is_active", pin.IntercomID).
			Updates(map[string]any{
				"is_active":  false,
				"updated_by": pin.CreatedBy,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Create(pin).Error
	})
	return translate(err)
}

func (cs *CredentialStore) GetActiveMasterPin(ctx context.Context, intercomID domain.IntercomID) (*domain.MasterPin, error) {
	var out domain.MasterPin
	err := cs.db.WithContext(ctx).
		First(&out, "intercom_id = ? AND is_active", intercomID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// --- user pins ---

// SupersedeUserPin replaces the user's live pin on the intercom, keeping the
// old row as inactive history.
func (cs *CredentialStore) SupersedeUserPin(ctx context.Context, pin *domain.UserPin) error {
	now := time.Now().UTC()
	if pin.ID == uuid.Nil {
		pin.ID = uuid.New()
	}
	pin.IsActive = true
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = now
	}
	pin.UpdatedAt = now

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.UserPin{}).
			Where("intercom_id = ? AND user_id = ? AND is_active", pin.IntercomID, pin.UserID).
			Updates(map[string]any{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Create(pin).Error
	})
	return translate(err)
}

func (cs *CredentialStore) DeactivateUserPin(ctx context.Context, intercomID domain.IntercomID, userID domain.UserID) error {
	res := cs.db.WithContext(ctx).Model(&domain.UserPin{}).
		Where("intercom_id = ? AND user_id = ? AND is_active", intercomID, userID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (cs *CredentialStore) GetActiveUserPins(ctx context.Context, intercomID domain.IntercomID) ([]domain.UserPin, error) {
	var out []domain.UserPin
	err := cs.db.WithContext(ctx).
		Where("intercom_id = ? AND is_active", intercomID).
		Find(&out).Error
	return out, translate(err)
}

// --- temporary pins ---

func (cs *CredentialStore) CreateTemporaryPin(ctx context.Context, pin *domain.TemporaryPin) error {
	now := time.Now().UTC()
	if pin.ID == uuid.Nil {
		pin.ID = uuid.New()
	}
	pin.IsActive = true
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = now
	}
	pin.UpdatedAt = now
	return translate(cs.db.WithContext(ctx).Create(pin).Error)
}

// GetActiveTemporaryPins returns every is_active pin, including expired and
// exhausted ones. The engine applies expiry/usage checks itself rather than
// trusting a cached flag.
func (cs *CredentialStore) GetActiveTemporaryPins(ctx context.Context, intercomID domain.IntercomID) ([]domain.TemporaryPin, error) {
	var out []domain.TemporaryPin
	err := cs.db.WithContext(ctx).
		Where("intercom_id = ? AND is_active", intercomID).
		Find(&out).Error
	return out, translate(err)
}

func (cs *CredentialStore) GetTemporaryPin(ctx context.Context, id domain.CredentialID) (*domain.TemporaryPin, error) {
	var out domain.TemporaryPin
	if err := cs.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (cs *CredentialStore) DeactivateTemporaryPin(ctx context.Context, id domain.CredentialID) error {
	res := cs.db.WithContext(ctx).Model(&domain.TemporaryPin{}).
		Where("id = ? AND is_active", id).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// --- access codes ---

func (cs *CredentialStore) CreateAccessCode(ctx context.Context, code *domain.AccessCode) error {
	now := time.Now().UTC()
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	code.IsActive = true
	if code.CreatedAt.IsZero() {
		code.CreatedAt = now
	}
	code.UpdatedAt = now
	return translate(cs.db.WithContext(ctx).Create(code).Error)
}

func (cs *CredentialStore) GetAccessCode(ctx context.Context, id domain.CredentialID) (*domain.AccessCode, error) {
	var out domain.AccessCode
	if err := cs.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// GetApplicableAccessCodes returns the union of active codes scoped to the
// intercom and building-wide codes (intercom_id IS NULL).
func (cs *CredentialStore) GetApplicableAccessCodes(ctx context.Context, buildingID domain.BuildingID, intercomID domain.IntercomID) ([]domain.AccessCode, error) {
	var out []domain.AccessCode
	err := cs.db.WithContext(ctx).
		Where("building_id = ? AND is_active AND (intercom_id = ? OR intercom_id IS NULL)", buildingID, intercomID).
		Find(&out).Error
	return out, translate(err)
}

func (cs *CredentialStore) UpdateAccessCode(ctx context.Context, id domain.CredentialID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := cs.db.WithContext(ctx).Model(&domain.AccessCode{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (cs *CredentialStore) DeactivateAccessCode(ctx context.Context, id domain.CredentialID) error {
	return cs.UpdateAccessCode(ctx, id, map[string]any{"is_active": false})
}

func (cs *CredentialStore) DeleteAccessCode(ctx context.Context, id domain.CredentialID) error {
	res := cs.db.WithContext(ctx).Delete(&domain.AccessCode{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (cs *CredentialStore) ListAccessCodes(ctx context.Context, q dto.AccessCodeQuery) ([]domain.AccessCode, int64, error) {
	db := cs.db.WithContext(ctx).Model(&domain.AccessCode{})
	if q.BuildingID != nil {
		db = db.Where("building_id = ?", *q.BuildingID)
	}
	if q.IntercomID != nil {
		db = db.Where("intercom_id = ?", *q.IntercomID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var out []domain.AccessCode
	err := db.Order("created_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&out).Error
	return out, total, translate(err)
}
