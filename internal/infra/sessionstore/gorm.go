package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore は sessions テーブルに保存する
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Load(ctx context.Context, key string) (session.Data, error) {
	var rec model.SessionRecord
	err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, s.now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session.Data{}, repo.ErrNotFound
	}
	if err != nil {
		return session.Data{}, err
	}

	var data session.Data
	if err := json.Unmarshal([]byte(rec.Data), &data); err != nil {
		return session.Data{}, fmt.Errorf("decode session: %w", err)
	}
	return data, nil
}

func (s *GormStore) Save(ctx context.Context, key string, data session.Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	rec := model.SessionRecord{
		Key:       key,
		Data:      string(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(&rec).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.SessionRecord{}).Error
}

// 期限切れを掃除する。削除件数を返す。
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&model.SessionRecord{})
	return res.RowsAffected, res.Error
}
