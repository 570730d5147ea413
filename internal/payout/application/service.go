// Package application 教练收款账户的应用服务
package application

import (
	"context"

	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/internal/payout/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// PayoutService 收款账户应用服务
type PayoutService struct {
	directory domain.CoachDirectory
	gateway   payments.Gateway
}

// NewPayoutService 创建收款账户应用服务
func NewPayoutService(directory domain.CoachDirectory, gateway payments.Gateway) *PayoutService {
	return &PayoutService{
		directory: directory,
		gateway:   gateway,
	}
}

// EnsureAccount 确保教练持有托管子账户。已缓存 ID 时直接返回，
// 构造上幂等，不会创建重复账户。
func (s *PayoutService) EnsureAccount(ctx context.Context, coachID string) (string, error) {
	coach, err := s.directory.Coach(ctx, coachID)
	if err != nil {
		return "", err
	}

	if coach.ConnectedAccountID != "" {
		return coach.ConnectedAccountID, nil
	}

	accountID, err := s.gateway.CreateConnectedAccount(ctx, coach.Email)
	if err != nil {
		return "", err
	}

	if err := s.directory.SetConnectedAccount(ctx, coachID, accountID); err != nil {
		return "", err
	}

	logger.Info(ctx, "connected account provisioned", "coach_id", coachID, "account_id", accountID)
	return accountID, nil
}

// OnboardingLink 生成一次性开通引导链接
func (s *PayoutService) OnboardingLink(ctx context.Context, coachID string) (string, error) {
	accountID, err := s.EnsureAccount(ctx, coachID)
	if err != nil {
		return "", err
	}
	return s.gateway.CreateAccountLink(ctx, accountID)
}

// AccountStatus 查询收款账户状态。未开始开通的教练直接返回全 false，
// 省掉一次处理商往返；已有账户的必须实时查询，本地缓存不可替代实时状态。
func (s *PayoutService) AccountStatus(ctx context.Context, coachID string) (*domain.AccountStatus, error) {
	coach, err := s.directory.Coach(ctx, coachID)
	if err != nil {
		return nil, err
	}

	if coach.ConnectedAccountID == "" {
		return &domain.AccountStatus{}, nil
	}

	state, err := s.gateway.Account(ctx, coach.ConnectedAccountID)
	if err != nil {
		return nil, err
	}

	return &domain.AccountStatus{
		HasAccount:         true,
		OnboardingComplete: state.DetailsSubmitted,
		ChargesEnabled:     state.ChargesEnabled,
		PayoutsEnabled:     state.PayoutsEnabled,
	}, nil
}

// ResetAccount 仅清除本地缓存的账户 ID，不删除处理商侧账户。
// 之后的 EnsureAccount 会签发全新账户，用于修复配置坏掉的账户。
func (s *PayoutService) ResetAccount(ctx context.Context, coachID string) error {
	coach, err := s.directory.Coach(ctx, coachID)
	if err != nil {
		return err
	}

	if coach.ConnectedAccountID == "" {
		return nil
	}

	if err := s.directory.SetConnectedAccount(ctx, coachID, ""); err != nil {
		return err
	}

	logger.Info(ctx, "connected account reference cleared",
		"coach_id", coachID,
		"previous_account_id", coach.ConnectedAccountID,
	)
	return nil
}
