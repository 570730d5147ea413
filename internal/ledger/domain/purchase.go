// Package domain 收入台账的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyProcessed 同一结账会话已入账（幂等短路，对外视为成功）
	ErrAlreadyProcessed = errors.New("purchase already recorded for session")
	// ErrNotFound 台账记录不存在
	ErrNotFound = errors.New("purchase not found")
)

// PlatformFeeRate 平台抽成比例
var PlatformFeeRate = decimal.NewFromFloat(0.20)

// ServiceType 教练服务类型
type ServiceType string

const (
	ServiceIntro   ServiceType = "intro"
	ServiceSession ServiceType = "session"
	ServiceMonthly ServiceType = "monthly"
)

// Valid 是否为已知服务类型
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceIntro, ServiceSession, ServiceMonthly:
		return true
	}
	return false
}

// PurchaseStatus 台账记录状态
type PurchaseStatus string

// PurchaseCompleted 已完成。记录只在支付确认后写入，创建后不再修改。
const PurchaseCompleted PurchaseStatus = "completed"

// Split 计算分账：抽成向下取整，余数归收款方，
// 保证 fee + earnings == gross 无泄漏
func Split(gross int64) (fee, earnings int64) {
	fee = decimal.NewFromInt(gross).Mul(PlatformFeeRate).Floor().IntPart()
	earnings = gross - fee
	return fee, earnings
}

// PurchaseRecord 台账记录。source_session_id 上的唯一索引是
// webhook 去重的存储层约束，先读后写的应用层检查不足以抵御并发投递。
type PurchaseRecord struct {
	gorm.Model
	// PurchaseID 业务 ID
	PurchaseID string `gorm:"column:purchase_id;type:varchar(32);uniqueIndex;not null" json:"purchase_id"`
	// PayeeID 收款教练的申请记录 ID
	PayeeID string `gorm:"column:payee_id;type:varchar(32);index;not null" json:"payee_id"`
	// PayerEmail 付款人邮箱
	PayerEmail string `gorm:"column:payer_email;type:varchar(100)" json:"payer_email"`
	// ServiceType 服务类型
	ServiceType ServiceType `gorm:"column:service_type;type:varchar(16);not null" json:"service_type"`
	// GrossAmount 成交总额（分）
	GrossAmount int64 `gorm:"column:gross_amount;not null" json:"gross_amount"`
	// PlatformFee 平台抽成（分）
	PlatformFee int64 `gorm:"column:platform_fee;not null" json:"platform_fee"`
	// PayeeEarnings 收款方所得（分）
	PayeeEarnings int64 `gorm:"column:payee_earnings;not null" json:"payee_earnings"`
	// Currency 币种
	Currency string `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	// SourceSessionID 结账会话 ID，一笔真实支付恰好入账一次
	SourceSessionID string `gorm:"column:source_session_id;type:varchar(128);uniqueIndex;not null" json:"source_session_id"`
	// Status 记录状态
	Status PurchaseStatus `gorm:"column:status;type:varchar(16);not null;default:'completed'" json:"status"`
}

// TableName 表名
func (PurchaseRecord) TableName() string {
	return "purchase_records"
}

// NewPurchaseRecord 按结算金额创建台账记录，分账在此一次性算定
func NewPurchaseRecord(purchaseID, payeeID, payerEmail string, serviceType ServiceType, gross int64, currency, sessionID string) *PurchaseRecord {
	fee, earnings := Split(gross)
	return &PurchaseRecord{
		PurchaseID:      purchaseID,
		PayeeID:         payeeID,
		PayerEmail:      payerEmail,
		ServiceType:     serviceType,
		GrossAmount:     gross,
		PlatformFee:     fee,
		PayeeEarnings:   earnings,
		Currency:        currency,
		SourceSessionID: sessionID,
		Status:          PurchaseCompleted,
	}
}

// Totals 台账聚合结果
type Totals struct {
	GrossAmount   int64 `json:"gross_amount"`
	PlatformFee   int64 `json:"platform_fee"`
	PayeeEarnings int64 `json:"payee_earnings"`
	Count         int64 `json:"count"`
}

// PurchaseRepository 台账仓储接口
type PurchaseRepository interface {
	// Create 插入台账记录，source_session_id 冲突时返回 ErrAlreadyProcessed
	Create(ctx context.Context, record *PurchaseRecord) error
	GetBySession(ctx context.Context, sessionID string) (*PurchaseRecord, error)
	ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*PurchaseRecord, error)
	// Totals 聚合查询，payeeID 为空时统计全平台
	Totals(ctx context.Context, payeeID string) (*Totals, error)
}
