// Package application 收入台账的只读聚合服务
package application

import (
	"context"

	"github.com/wyfcoding/mentormarket/internal/ledger/domain"
)

// LedgerService 台账应用服务，纯派生视图，不产生新的不变量
type LedgerService struct {
	repo domain.PurchaseRepository
}

// NewLedgerService 创建台账应用服务
func NewLedgerService(repo domain.PurchaseRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

// Totals 聚合查询，payeeID 为空时统计全平台
func (s *LedgerService) Totals(ctx context.Context, payeeID string) (*domain.Totals, error) {
	return s.repo.Totals(ctx, payeeID)
}

// Purchases 按收款方列出台账记录
func (s *LedgerService) Purchases(ctx context.Context, payeeID string, limit, offset int) ([]*domain.PurchaseRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByPayee(ctx, payeeID, limit, offset)
}
