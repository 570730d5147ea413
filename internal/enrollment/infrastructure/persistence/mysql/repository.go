package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"gorm.io/gorm"
)

type ApplicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) domain.ApplicationRepository {
	return &ApplicationRepo{db: db}
}

func (r *ApplicationRepo) Save(ctx context.Context, record *domain.ApplicationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *ApplicationRepo) Update(ctx context.Context, record *domain.ApplicationRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *ApplicationRepo) Get(ctx context.Context, applicationID string) (*domain.ApplicationRecord, error) {
	var record domain.ApplicationRecord
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *ApplicationRepo) GetByEmail(ctx context.Context, kind domain.Kind, email string) (*domain.ApplicationRecord, error) {
	var record domain.ApplicationRecord
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND email = ?", kind, email).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *ApplicationRepo) List(ctx context.Context, kind domain.Kind, status domain.Status, limit, offset int) ([]*domain.ApplicationRecord, error) {
	query := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var records []*domain.ApplicationRecord
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, err
}

func (r *ApplicationRepo) UpdateStatus(ctx context.Context, applicationID string, status domain.Status) error {
	result := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{}).
		Where("application_id = ?", applicationID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDisabled 切换禁用开关。MySQL 对值未变化的 UPDATE 报告 0 行，
// 不能据此判定记录不存在，0 行时需再查一次区分"不存在"和"已是目标值"。
func (r *ApplicationRepo) SetDisabled(ctx context.Context, applicationID string, disabled bool) error {
	result := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{}).
		Where("application_id = ? AND disabled != ?", applicationID, disabled).
		Update("disabled", disabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) SetConnectedAccount(ctx context.Context, applicationID string, accountID string) error {
	result := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{}).
		Where("application_id = ?", applicationID).
		Update("connected_account_id", accountID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkPaid 条件更新充当幂等保护：payment_status 仍为 unpaid 才会命中，
// 重复投递时影响行数为 0。
func (r *ApplicationRepo) MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.ApplicationRecord{}).
		Where("kind = ? AND email = ? AND payment_status = ?",
			domain.KindEntrepreneur, email, domain.PaymentStatusUnpaid).
		Updates(map[string]any{
			"payment_status":   domain.PaymentStatusPaid,
			"customer_ref":     customerRef,
			"subscription_ref": subscriptionRef,
			"paid_at":          paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
