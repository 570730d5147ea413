// Package domain 支付对账的领域模型
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidSignature 事件签名校验失败
	ErrInvalidSignature = errors.New("invalid event signature")
	// ErrMembershipNotFound 事件指向的申请记录不存在
	ErrMembershipNotFound = errors.New("membership application not found")
)

// EventTypeCheckoutCompleted 结账会话完成事件
const EventTypeCheckoutCompleted = "checkout.session.completed"

// PaymentStatusPaid 会话已收款
const PaymentStatusPaid = "paid"

// CheckoutEvent 已验签的结账事件。金额取处理商的实际结算值，
// 不回查价目表，促销或价格调整时以结算额为准。
type CheckoutEvent struct {
	Type            string            `json:"type"`
	SessionID       string            `json:"session_id"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerRef     string            `json:"customer_ref"`
	SubscriptionRef string            `json:"subscription_ref"`
	Metadata        map[string]string `json:"metadata"`
}

// EventVerifier 验签并解析原始 webhook 载荷。
// 验签必须先于任何存储访问，未验签的载荷不可信。
type EventVerifier interface {
	Verify(payload []byte, signature string) (*CheckoutEvent, error)
}

// MembershipStore 会员付费状态的写入方
type MembershipStore interface {
	// MarkPaid 条件写入，返回 false 表示记录已是 paid
	MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error)
	// Exists 记录是否存在，用于区分"已付"与"查无此人"
	Exists(ctx context.Context, email string) (bool, error)
}

// CoachDirectory 按申请记录 ID 解析教练邮箱
type CoachDirectory interface {
	CoachEmail(ctx context.Context, coachID string) (string, error)
}

// Notifier 对账完成后的通知协作方（尽力而为）
type Notifier interface {
	MembershipPaid(ctx context.Context, email string) error
	PurchaseSettled(ctx context.Context, payerEmail, payeeEmail, serviceType string, gross, earnings int64) error
}

// EventPublisher 入账事件的下游广播
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
