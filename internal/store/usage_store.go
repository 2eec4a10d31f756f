package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"intercom/internal/domain"

	"gorm.io/gorm"
)

// UsageStore is the usage ledger: the only code allowed to mutate
// uses_count / is_active as a side effect of the verification read path.
// Both consume operations are optimistic compare-and-swap; callers get a
// plain false on a lost race and decide whether to retry.
type UsageStore struct{ db *gorm.DB }

func (s *Store) Usage() *UsageStore { return &UsageStore{s.DB} }

// ConsumeTemporaryPin commits one use only if the stored uses_count still
// equals the snapshot the engine read. The conditional update and the
// append-only usage row share a transaction, so the usage-row count can never
// exceed max_uses.
func (us *UsageStore) ConsumeTemporaryPin(ctx context.Context, pinID domain.CredentialID, expectedUses int, at time.Time, ip, deviceInfo string) (bool, error) {
	consumed := false
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.TemporaryPin{}).
			Where("id = ? AND is_active AND uses_count = ? AND uses_count < max_uses AND expires_at > ?", pinID, expectedUses, at).
			Updates(map[string]any{
				"uses_count":    expectedUses + 1,
				"first_used_at": gorm.Expr("COALESCE(first_used_at, ?)", at),
				"last_used_at":  at,
				"updated_at":    at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race, or expired/exhausted meanwhile
		}
		consumed = true
		return tx.Create(&domain.TemporaryPinUsage{
			ID:             uuid.New(),
			TemporaryPinID: pinID,
			UsedAt:         at,
			UsedFromIP:     ip,
			DeviceInfo:     deviceInfo,
		}).Error
	})
	if err != nil {
		return false, translate(err)
	}
	return consumed, nil
}

// ConsumeSingleUseCode deactivates the code iff it is still active. Exactly
// one concurrent caller wins.
func (us *UsageStore) ConsumeSingleUseCode(ctx context.Context, codeID domain.CredentialID) (bool, error) {
	res := us.db.WithContext(ctx).Model(&domain.AccessCode{}).
		Where("id = ? AND is_active", codeID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
