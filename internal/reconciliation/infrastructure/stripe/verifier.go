// Package stripe Stripe webhook 的验签实现
package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
)

// Verifier 基于签名密钥校验并解析 Stripe 事件
type Verifier struct {
	secret string
}

// NewVerifier 创建验签器
func NewVerifier(webhookSecret string) *Verifier {
	return &Verifier{secret: webhookSecret}
}

// Verify 校验签名并把会话载荷抽取成内部事件。
// 密钥未配置时一律拒绝：空密钥会让 HMAC 校验退化成对空串签名，
// 伪造的载荷就能通过验签。
func (v *Verifier) Verify(payload []byte, signature string) (*domain.CheckoutEvent, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", domain.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEvent(payload, signature, v.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &domain.CheckoutEvent{Type: string(event.Type)}
	if out.Type != domain.EventTypeCheckoutCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	out.SessionID = session.ID
	out.PaymentStatus = string(session.PaymentStatus)
	out.AmountTotal = session.AmountTotal
	out.Currency = string(session.Currency)
	out.Metadata = session.Metadata
	if session.CustomerDetails != nil {
		out.CustomerEmail = session.CustomerDetails.Email
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = session.CustomerEmail
	}
	if session.Customer != nil {
		out.CustomerRef = session.Customer.ID
	}
	if session.Subscription != nil {
		out.SubscriptionRef = session.Subscription.ID
	}
	return out, nil
}
