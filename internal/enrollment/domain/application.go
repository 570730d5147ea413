// Package domain 申请记录与资格状态机的领域模型
package domain

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 申请记录不存在
	ErrNotFound = errors.New("application not found")
	// ErrInvalidStatus 非法状态或非法状态迁移
	ErrInvalidStatus = errors.New("invalid status transition")
)

// Kind 申请人类型
type Kind string

const (
	KindEntrepreneur Kind = "entrepreneur" // 创业者
	KindMentor       Kind = "mentor"       // 导师
	KindCoach        Kind = "coach"        // 教练
	KindInvestor     Kind = "investor"     // 投资人
)

// Valid 是否为已知申请人类型
func (k Kind) Valid() bool {
	switch k {
	case KindEntrepreneur, KindMentor, KindCoach, KindInvestor:
		return true
	}
	return false
}

// Status 申请状态
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusPending     Status = "pending" // 历史数据中与 submitted 等价
	StatusPreApproved Status = "pre_approved"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusTerminated  Status = "terminated"
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusPending, StatusPreApproved, StatusApproved, StatusRejected, StatusTerminated:
		return true
	}
	return false
}

// PaymentStatus 会员付费状态，与申请状态相互独立
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// AccessLevel 控制台访问级别
type AccessLevel string

const (
	AccessFull AccessLevel = "full"
	AccessView AccessLevel = "view"
	AccessNone AccessLevel = "none"
)

// transitions 状态迁移表。rejected/terminated 为吸收态，
// 重新进入流程只能走重新提交（见 Service.Submit 的合并策略）。
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusPreApproved, StatusApproved, StatusRejected},
	StatusPending:     {StatusPreApproved, StatusApproved, StatusRejected},
	StatusPreApproved: {StatusApproved, StatusRejected, StatusTerminated},
	StatusApproved:    {StatusRejected, StatusTerminated},
	StatusRejected:    {},
	StatusTerminated:  {},
}

// CanTransition 判定状态迁移是否合法
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplicationRecord 申请记录聚合根，按申请人类型各一条，软状态代替物理删除
type ApplicationRecord struct {
	gorm.Model
	// ApplicationID 业务 ID
	ApplicationID string `gorm:"column:application_id;type:varchar(32);uniqueIndex;not null" json:"application_id"`
	// Kind 申请人类型
	Kind Kind `gorm:"column:kind;type:varchar(16);not null;uniqueIndex:ux_applications_kind_email,priority:1" json:"kind"`
	// Email 申请人邮箱
	Email string `gorm:"column:email;type:varchar(100);not null;uniqueIndex:ux_applications_kind_email,priority:2" json:"email"`
	// FullName 姓名
	FullName string `gorm:"column:full_name;type:varchar(100)" json:"full_name"`
	// Profile 申请表单内容（JSON，重新提交时合并覆盖）
	Profile string `gorm:"column:profile;type:text" json:"profile"`
	// Status 申请状态
	Status Status `gorm:"column:status;type:varchar(20);index;not null;default:'submitted'" json:"status"`
	// PaymentStatus 会员付费状态（仅创业者使用）
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(16);not null;default:'unpaid'" json:"payment_status"`
	// Disabled 禁用开关，可独立切换，不销毁记录
	Disabled bool `gorm:"column:disabled;default:false" json:"disabled"`
	// ConnectedAccountID 托管子账户 ID（仅教练使用），至多持有一个
	ConnectedAccountID string `gorm:"column:connected_account_id;type:varchar(64)" json:"connected_account_id"`
	// RateSheet 教练价目表（JSON，存在历史单价格式）
	RateSheet string `gorm:"column:rate_sheet;type:text" json:"rate_sheet"`
	// CustomerRef 处理商客户引用
	CustomerRef string `gorm:"column:customer_ref;type:varchar(64)" json:"customer_ref"`
	// SubscriptionRef 处理商订阅引用
	SubscriptionRef string `gorm:"column:subscription_ref;type:varchar(64)" json:"subscription_ref"`
	// PaidAt 付费时间
	PaidAt *time.Time `gorm:"column:paid_at" json:"paid_at"`
}

// TableName 表名
func (ApplicationRecord) TableName() string {
	return "applications"
}

// Transition 执行状态迁移，返回迁移前状态
func (r *ApplicationRecord) Transition(to Status) (Status, error) {
	if !to.Valid() {
		return r.Status, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, to)
	}
	if !CanTransition(r.Status, to) {
		return r.Status, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, r.Status, to)
	}
	previous := r.Status
	r.Status = to
	return previous, nil
}

// DashboardAccess 控制台访问级别判定。付费状态不单独授予访问，
// 完整访问仍需管理员将状态推进到 approved。
func (r *ApplicationRecord) DashboardAccess() AccessLevel {
	if r.Disabled {
		return AccessNone
	}
	switch r.Status {
	case StatusApproved:
		return AccessFull
	case StatusPreApproved:
		return AccessView
	default:
		return AccessNone
	}
}

// Resubmittable 重新提交时是否合并进现有记录
func (r *ApplicationRecord) Resubmittable() bool {
	return r.Status == StatusRejected || r.Status == StatusPreApproved
}
