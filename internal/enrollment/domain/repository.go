package domain

import (
	"context"
	"time"
)

// ApplicationRepository 申请记录仓储接口
type ApplicationRepository interface {
	Save(ctx context.Context, record *ApplicationRecord) error
	Update(ctx context.Context, record *ApplicationRecord) error
	Get(ctx context.Context, applicationID string) (*ApplicationRecord, error)
	GetByEmail(ctx context.Context, kind Kind, email string) (*ApplicationRecord, error)
	List(ctx context.Context, kind Kind, status Status, limit, offset int) ([]*ApplicationRecord, error)
	UpdateStatus(ctx context.Context, applicationID string, status Status) error
	SetDisabled(ctx context.Context, applicationID string, disabled bool) error
	SetConnectedAccount(ctx context.Context, applicationID string, accountID string) error
	// MarkPaid 条件写入：仅当付费状态仍为 unpaid 时生效，
	// 返回 false 表示记录已是 paid（幂等短路）
	MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error)
}

// Notifier 申请流程的通知协作方（尽力而为，失败不回滚状态变更）
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, email, kind, previous, current string) error
	SendSetupInvitation(ctx context.Context, email, name, token string) error
}
