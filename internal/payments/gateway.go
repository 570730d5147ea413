// Package payments 定义支付处理商网关边界
package payments

import (
	"context"
	"errors"
)

// ErrProcessorUnavailable 支付处理商调用失败（瞬时故障，调用方重试）
var ErrProcessorUnavailable = errors.New("payment processor unavailable")

// AccountState 托管子账户的实时状态，本地不做权威缓存
type AccountState struct {
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// Session 支付处理商侧的结账会话
type Session struct {
	ID  string
	URL string
}

// SubscriptionCheckoutParams 会员订阅结账参数
type SubscriptionCheckoutParams struct {
	CustomerEmail string
	PriceID       string
	Metadata      map[string]string
}

// DestinationCheckoutParams 目的地分账结账参数。
// 平台抽成在创建会话时随分账参数一并下发，处理商在清算时强制执行。
type DestinationCheckoutParams struct {
	ProductName          string
	CustomerEmail        string
	Amount               int64 // 最小货币单位（分）
	Currency             string
	ApplicationFee       int64 // 平台抽成（分）
	DestinationAccountID string
	Metadata             map[string]string
}

// Gateway 支付处理商网关接口
type Gateway interface {
	// CreateConnectedAccount 为收款方创建托管子账户，返回账户 ID
	CreateConnectedAccount(ctx context.Context, email string) (string, error)
	// CreateAccountLink 生成一次性、短时效的开通引导链接
	CreateAccountLink(ctx context.Context, accountID string) (string, error)
	// Account 实时查询托管子账户状态
	Account(ctx context.Context, accountID string) (*AccountState, error)
	// CreateSubscriptionCheckout 创建会员订阅结账会话
	CreateSubscriptionCheckout(ctx context.Context, params *SubscriptionCheckoutParams) (*Session, error)
	// CreateDestinationCheckout 创建一次性分账结账会话
	CreateDestinationCheckout(ctx context.Context, params *DestinationCheckoutParams) (*Session, error)
}
