package store

import (
	"context"

	"github.com/google/uuid"

	"intercom/internal/domain"
	"intercom/internal/dto"

	"gorm.io/gorm"
)

// AccessLogStore is append-only. There are deliberately no update or delete
// methods; audit rows are immutable once written.
type AccessLogStore struct{ db *gorm.DB }

func (s *Store) AccessLogs() *AccessLogStore { return &AccessLogStore{s.DB} }

func (as *AccessLogStore) Record(ctx context.Context, entry *domain.AccessLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return translate(as.db.WithContext(ctx).Create(entry).Error)
}

func (as *AccessLogStore) List(ctx context.Context, q dto.AccessLogQuery) ([]domain.AccessLog, int64, error) {
	db := as.db.WithContext(ctx).Model(&domain.AccessLog{})
	if q.IntercomID != nil {
		db = db.Where("intercom_id = ?", *q.IntercomID)
	}
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.Success != nil {
		db = db.Where("is_success = ?", *q.Success)
	}
	if q.From != nil {
		db = db.Where("occurred_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("occurred_at < ?", *q.To)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var out []domain.AccessLog
	err := db.Order("occurred_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&out).Error
	return out, total, translate(err)
}
