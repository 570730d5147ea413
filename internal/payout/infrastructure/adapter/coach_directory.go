// Package adapter 把申请记录仓储适配为教练目录
package adapter

import (
	"context"
	"errors"

	enrollment "github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"github.com/wyfcoding/mentormarket/internal/payout/domain"
)

type coachDirectory struct {
	applications enrollment.ApplicationRepository
}

// NewCoachDirectory 创建教练目录适配器
func NewCoachDirectory(applications enrollment.ApplicationRepository) domain.CoachDirectory {
	return &coachDirectory{applications: applications}
}

func (d *coachDirectory) Coach(ctx context.Context, coachID string) (*domain.Coach, error) {
	record, err := d.applications.Get(ctx, coachID)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if record.Kind != enrollment.KindCoach {
		return nil, domain.ErrNotFound
	}

	return &domain.Coach{
		ID:                 record.ApplicationID,
		Email:              record.Email,
		ConnectedAccountID: record.ConnectedAccountID,
	}, nil
}

func (d *coachDirectory) SetConnectedAccount(ctx context.Context, coachID string, accountID string) error {
	return d.applications.SetConnectedAccount(ctx, coachID, accountID)
}
