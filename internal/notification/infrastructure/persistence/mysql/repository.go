// Package mysql 通知仓储的 MySQL 实现
package mysql

import (
	"context"

	"github.com/wyfcoding/mentormarket/internal/notification/domain"
	"gorm.io/gorm"
)

// NotificationRepo 通知仓储
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建通知仓储
func NewNotificationRepo(db *gorm.DB) domain.NotificationRepository {
	return &NotificationRepo{db: db}
}

// Save 保存通知
func (r *NotificationRepo) Save(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// Update 更新通知
func (r *NotificationRepo) Update(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

// ListByRecipient 按收件人查询通知
func (r *NotificationRepo) ListByRecipient(ctx context.Context, email string, limit, offset int) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_email = ?", email).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}
