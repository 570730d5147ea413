// Package domain 通知的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification 通知实体
type Notification struct {
	gorm.Model
	// NotificationID 通知 ID
	NotificationID string `gorm:"column:notification_id;type:varchar(32);uniqueIndex;not null" json:"notification_id"`
	// RecipientEmail 收件人邮箱
	RecipientEmail string `gorm:"column:recipient_email;type:varchar(100);index;not null" json:"recipient_email"`
	// Subject 通知主题
	Subject string `gorm:"column:subject;type:varchar(200)" json:"subject"`
	// Content 通知内容
	Content string `gorm:"column:content;type:text" json:"content"`
	// Status 通知状态
	Status NotificationStatus `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	// ErrorMessage 错误信息
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
	// SentAt 发送时间
	SentAt *time.Time `gorm:"column:sent_at;type:datetime" json:"sent_at"`
}

// TableName 表名
func (Notification) TableName() string {
	return "notifications"
}

// MarkSent 标记已发送
func (n *Notification) MarkSent(at time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &at
}

// MarkFailed 标记发送失败
func (n *Notification) MarkFailed(reason string) {
	n.Status = NotificationStatusFailed
	n.ErrorMessage = reason
}

// Sender 邮件发送器
type Sender interface {
	Send(ctx context.Context, target string, subject string, content string) error
}

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	Update(ctx context.Context, notification *Notification) error
	ListByRecipient(ctx context.Context, email string, limit, offset int) ([]*Notification, error)
}
