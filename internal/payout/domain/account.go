// Package domain 教练收款账户的领域模型
package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound 教练不存在
	ErrNotFound = errors.New("coach not found")
)

// AccountStatus 收款账户状态。布尔位始终实时取自处理商，
// 本地只缓存账户 ID，开通进度会在处理商侧带外变化。
type AccountStatus struct {
	HasAccount         bool `json:"has_account"`
	OnboardingComplete bool `json:"onboarding_complete"`
	ChargesEnabled     bool `json:"charges_enabled"`
	PayoutsEnabled     bool `json:"payouts_enabled"`
}

// Coach 教练视图
type Coach struct {
	ID                 string
	Email              string
	ConnectedAccountID string
}

// CoachDirectory 教练目录接口，由申请记录适配
type CoachDirectory interface {
	Coach(ctx context.Context, coachID string) (*Coach, error)
	SetConnectedAccount(ctx context.Context, coachID string, accountID string) error
}
