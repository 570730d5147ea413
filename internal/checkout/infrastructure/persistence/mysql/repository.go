package mysql

import (
	"context"

	"github.com/wyfcoding/mentormarket/internal/checkout/domain"
	"gorm.io/gorm"
)

type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) domain.SessionRepository {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Save(ctx context.Context, record *domain.SessionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
