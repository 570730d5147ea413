package domain

import (
	"context"

	"gorm.io/gorm"
)

// SessionKind 结账会话种类
type SessionKind string

const (
	SessionMembership  SessionKind = "membership"
	SessionMarketplace SessionKind = "marketplace"
)

// SessionRecord 本地持久化的结账会话。会话本身归处理商所有，
// 这里只保留会话 ID 和创建时附加的 metadata，供 webhook 复原上下文。
type SessionRecord struct {
	gorm.Model
	// SessionID 处理商会话 ID
	SessionID string `gorm:"column:session_id;type:varchar(128);uniqueIndex;not null" json:"session_id"`
	// Kind 会话种类
	Kind SessionKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	// PayerEmail 付款人邮箱
	PayerEmail string `gorm:"column:payer_email;type:varchar(100)" json:"payer_email"`
	// PayerName 付款人姓名
	PayerName string `gorm:"column:payer_name;type:varchar(100)" json:"payer_name"`
	// CoachID 收款教练（仅 marketplace）
	CoachID string `gorm:"column:coach_id;type:varchar(32);index" json:"coach_id"`
	// ServiceType 服务类型（仅 marketplace）
	ServiceType string `gorm:"column:service_type;type:varchar(16)" json:"service_type"`
	// GrossAmount 创建时的成交总额（分）
	GrossAmount int64 `gorm:"column:gross_amount" json:"gross_amount"`
	// PlatformFee 创建时算定的平台抽成（分）
	PlatformFee int64 `gorm:"column:platform_fee" json:"platform_fee"`
}

// TableName 表名
func (SessionRecord) TableName() string {
	return "checkout_sessions"
}

// SessionRepository 结账会话仓储接口
type SessionRepository interface {
	Save(ctx context.Context, record *SessionRecord) error
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
}

// CoachCatalog 教练目录接口，结账侧只需要收款账户和价目表
type CoachCatalog interface {
	Coach(ctx context.Context, coachID string) (*CoachListing, error)
}

// CoachListing 结账视角的教练视图
type CoachListing struct {
	ID                 string
	Email              string
	ConnectedAccountID string
	RateSheet          string
}
