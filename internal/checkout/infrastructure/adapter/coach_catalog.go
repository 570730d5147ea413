// Package adapter 把申请记录仓储适配为结账侧的教练目录
package adapter

import (
	"context"

	"github.com/wyfcoding/mentormarket/internal/checkout/domain"
	enrollment "github.com/wyfcoding/mentormarket/internal/enrollment/domain"
)

type coachCatalog struct {
	applications enrollment.ApplicationRepository
}

// NewCoachCatalog 创建教练目录适配器
func NewCoachCatalog(applications enrollment.ApplicationRepository) domain.CoachCatalog {
	return &coachCatalog{applications: applications}
}

func (a *coachCatalog) Coach(ctx context.Context, coachID string) (*domain.CoachListing, error) {
	record, err := a.applications.Get(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if record.Kind != enrollment.KindCoach {
		return nil, enrollment.ErrNotFound
	}

	return &domain.CoachListing{
		ID:                 record.ApplicationID,
		Email:              record.Email,
		ConnectedAccountID: record.ConnectedAccountID,
		RateSheet:          record.RateSheet,
	}, nil
}
