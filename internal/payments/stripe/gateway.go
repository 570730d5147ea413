// Package stripe 提供 payments.Gateway 的 Stripe 实现
package stripe

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// Config Stripe 网关配置
type Config struct {
	SecretKey            string
	SuccessURL           string
	CancelURL            string
	OnboardingRefreshURL string
	OnboardingReturnURL  string
}

// Gateway Stripe 网关实现
type Gateway struct {
	api    *client.API
	config Config
}

// NewGateway 创建 Stripe 网关
func NewGateway(cfg Config) *Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Gateway{
		api:    api,
		config: cfg,
	}
}

// CreateConnectedAccount 创建 Express 托管子账户
func (g *Gateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx

	acct, err := g.api.Accounts.New(params)
	if err != nil {
		logger.Error(ctx, "Failed to create connected account", "email", email, "error", err)
		return "", fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}

	return acct.ID, nil
}

// CreateAccountLink 生成开通引导链接
func (g *Gateway) CreateAccountLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(g.config.OnboardingRefreshURL),
		ReturnURL:  stripe.String(g.config.OnboardingReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		logger.Error(ctx, "Failed to create account link", "account_id", accountID, "error", err)
		return "", fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}

	return link.URL, nil
}

// Account 实时查询托管子账户状态
func (g *Gateway) Account(ctx context.Context, accountID string) (*payments.AccountState, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}

	return &payments.AccountState{
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}

// CreateSubscriptionCheckout 创建会员订阅结账会话
func (g *Gateway) CreateSubscriptionCheckout(ctx context.Context, p *payments.SubscriptionCheckoutParams) (*payments.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.config.SuccessURL),
		CancelURL:  stripe.String(g.config.CancelURL),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		logger.Error(ctx, "Failed to create subscription checkout", "email", p.CustomerEmail, "error", err)
		return nil, fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}

	return &payments.Session{ID: sess.ID, URL: sess.URL}, nil
}

// CreateDestinationCheckout 创建一次性分账结账会话。
// 抽成和分账目的地在会话创建时下发，处理商在清算时按此执行分账。
func (g *Gateway) CreateDestinationCheckout(ctx context.Context, p *payments.DestinationCheckoutParams) (*payments.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(p.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(p.DestinationAccountID),
			},
		},
		SuccessURL: stripe.String(g.config.SuccessURL),
		CancelURL:  stripe.String(g.config.CancelURL),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		logger.Error(ctx, "Failed to create destination checkout",
			"destination", p.DestinationAccountID,
			"amount", p.Amount,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", payments.ErrProcessorUnavailable, err)
	}

	return &payments.Session{ID: sess.ID, URL: sess.URL}, nil
}
