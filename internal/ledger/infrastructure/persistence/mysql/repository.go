package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/mentormarket/internal/ledger/domain"
	"gorm.io/gorm"
)

type PurchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) domain.PurchaseRepository {
	return &PurchaseRepo{db: db}
}

// Create 依赖 source_session_id 唯一索引做原子的 check-and-insert，
// 唯一键冲突翻译为 ErrAlreadyProcessed
func (r *PurchaseRepo) Create(ctx context.Context, record *domain.PurchaseRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyProcessed
		}
		return err
	}
	return nil
}

func (r *PurchaseRepo) GetBySession(ctx context.Context, sessionID string) (*domain.PurchaseRecord, error) {
	var record domain.PurchaseRecord
	if err := r.db.WithContext(ctx).
		Where("source_session_id = ?", sessionID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PurchaseRepo) ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*domain.PurchaseRecord, error) {
	query := r.db.WithContext(ctx).Model(&domain.PurchaseRecord{})
	if payeeID != "" {
		query = query.Where("payee_id = ?", payeeID)
	}

	var records []*domain.PurchaseRecord
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, err
}

func (r *PurchaseRepo) Totals(ctx context.Context, payeeID string) (*domain.Totals, error) {
	query := r.db.WithContext(ctx).Model(&domain.PurchaseRecord{})
	if payeeID != "" {
		query = query.Where("payee_id = ?", payeeID)
	}

	var totals domain.Totals
	err := query.Select(
		"COALESCE(SUM(gross_amount), 0) AS gross_amount, " +
			"COALESCE(SUM(platform_fee), 0) AS platform_fee, " +
			"COALESCE(SUM(payee_earnings), 0) AS payee_earnings, " +
			"COUNT(*) AS count",
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
