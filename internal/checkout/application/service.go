// Package application 结账编排的应用服务
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/mentormarket/internal/checkout/domain"
	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/metrics"
)

// Config 结账配置
type Config struct {
	// MembershipPriceID 会员订阅的固定价格 ID
	MembershipPriceID string
	// Currency 结算币种
	Currency string
}

// MarketplaceCheckoutRequest 教练服务结账请求
type MarketplaceCheckoutRequest struct {
	CoachID     string `json:"coach_id" binding:"required"`
	ServiceType string `json:"service_type" binding:"required"`
	PayerEmail  string `json:"payer_email" binding:"required,email"`
	PayerName   string `json:"payer_name"`
}

// CheckoutService 结账应用服务
type CheckoutService struct {
	catalog  domain.CoachCatalog
	gateway  payments.Gateway
	sessions domain.SessionRepository
	metrics  *metrics.Metrics
	config   Config
}

// NewCheckoutService 创建结账应用服务
func NewCheckoutService(
	catalog domain.CoachCatalog,
	gateway payments.Gateway,
	sessions domain.SessionRepository,
	m *metrics.Metrics,
	cfg Config,
) *CheckoutService {
	return &CheckoutService{
		catalog:  catalog,
		gateway:  gateway,
		sessions: sessions,
		metrics:  m,
		config:   cfg,
	}
}

// MembershipCheckout 创建会员订阅结账。metadata 带上邮箱，
// webhook 处理时无需额外关联查询即可定位申请人。
func (s *CheckoutService) MembershipCheckout(ctx context.Context, email string) (string, error) {
	session, err := s.gateway.CreateSubscriptionCheckout(ctx, &payments.SubscriptionCheckoutParams{
		CustomerEmail: email,
		PriceID:       s.config.MembershipPriceID,
		Metadata: map[string]string{
			"email": email,
		},
	})
	if err != nil {
		return "", err
	}

	record := &domain.SessionRecord{
		SessionID:  session.ID,
		Kind:       domain.SessionMembership,
		PayerEmail: email,
	}
	if err := s.sessions.Save(ctx, record); err != nil {
		// 会话已在处理商侧存在，本地留痕失败只记日志，webhook 仍可从 metadata 复原
		logger.Warn(ctx, "failed to persist checkout session", "session_id", session.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.CheckoutSessionsTotal.Inc()
	}

	logger.Info(ctx, "membership checkout created", "session_id", session.ID, "email", email)
	return session.URL, nil
}

// MarketplaceCheckout 创建教练服务的目的地分账结账。
// 分账必须在创建会话前算定并随会话下发，处理商在清算时强制执行，事后无法补救。
func (s *CheckoutService) MarketplaceCheckout(ctx context.Context, req *MarketplaceCheckoutRequest) (string, error) {
	serviceType := ledger.ServiceType(req.ServiceType)
	if !serviceType.Valid() {
		return "", fmt.Errorf("%w: unknown service type %q", domain.ErrNoRateSheet, req.ServiceType)
	}

	coach, err := s.catalog.Coach(ctx, req.CoachID)
	if err != nil {
		return "", err
	}

	if coach.ConnectedAccountID == "" {
		return "", domain.ErrCoachNotOnboarded
	}
	state, err := s.gateway.Account(ctx, coach.ConnectedAccountID)
	if err != nil {
		return "", err
	}
	if !state.ChargesEnabled {
		return "", domain.ErrCoachNotOnboarded
	}

	sheet, err := domain.DecodeRateSheet(coach.RateSheet)
	if err != nil {
		return "", err
	}
	price, err := sheet.PriceCents(serviceType)
	if err != nil {
		return "", err
	}

	fee, _ := ledger.Split(price)

	session, err := s.gateway.CreateDestinationCheckout(ctx, &payments.DestinationCheckoutParams{
		ProductName:          fmt.Sprintf("Coaching %s with %s", serviceType, coach.Email),
		CustomerEmail:        req.PayerEmail,
		Amount:               price,
		Currency:             s.config.Currency,
		ApplicationFee:       fee,
		DestinationAccountID: coach.ConnectedAccountID,
		Metadata: map[string]string{
			"coach_id":     coach.ID,
			"service_type": string(serviceType),
			"payer_email":  req.PayerEmail,
			"payer_name":   req.PayerName,
		},
	})
	if err != nil {
		return "", err
	}

	record := &domain.SessionRecord{
		SessionID:   session.ID,
		Kind:        domain.SessionMarketplace,
		PayerEmail:  req.PayerEmail,
		PayerName:   req.PayerName,
		CoachID:     coach.ID,
		ServiceType: string(serviceType),
		GrossAmount: price,
		PlatformFee: fee,
	}
	if err := s.sessions.Save(ctx, record); err != nil {
		logger.Warn(ctx, "failed to persist checkout session", "session_id", session.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.CheckoutSessionsTotal.Inc()
	}

	logger.Info(ctx, "marketplace checkout created",
		"session_id", session.ID,
		"coach_id", coach.ID,
		"service_type", serviceType,
		"gross_amount", price,
		"platform_fee", fee,
	)
	return session.URL, nil
}
