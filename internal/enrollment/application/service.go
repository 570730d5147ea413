// Package application 申请流程的应用服务
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

// SubmitRequest 提交申请请求
type SubmitRequest struct {
	Kind     string         `json:"kind" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	FullName string         `json:"full_name"`
	Profile  map[string]any `json:"profile"`
}

// EnrollmentService 申请流程应用服务
type EnrollmentService struct {
	repo     domain.ApplicationRepository
	notifier domain.Notifier
	idGen    *utils.SnowflakeID
}

// NewEnrollmentService 创建申请流程应用服务
func NewEnrollmentService(repo domain.ApplicationRepository, notifier domain.Notifier, idGen *utils.SnowflakeID) *EnrollmentService {
	return &EnrollmentService{
		repo:     repo,
		notifier: notifier,
		idGen:    idGen,
	}
}

// Submit 提交申请。同一人重复提交时按合并策略处理：
// 此前被拒绝的回到 submitted 重新走审批；处于 pre_approved 的仅合并表单数据。
func (s *EnrollmentService) Submit(ctx context.Context, req *SubmitRequest) (*domain.ApplicationRecord, error) {
	kind := domain.Kind(req.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidStatus, req.Kind)
	}

	existing, err := s.repo.GetByEmail(ctx, kind, req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if !existing.Resubmittable() {
			return existing, nil
		}
		existing.Profile = mergeProfile(existing.Profile, req.Profile)
		if req.FullName != "" {
			existing.FullName = req.FullName
		}
		if existing.Status == domain.StatusRejected {
			existing.Status = domain.StatusSubmitted
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		logger.Info(ctx, "application resubmitted", "application_id", existing.ApplicationID, "kind", kind)
		return existing, nil
	}

	record := &domain.ApplicationRecord{
		ApplicationID: fmt.Sprintf("app_%d", s.idGen.Generate()),
		Kind:          kind,
		Email:         req.Email,
		FullName:      req.FullName,
		Profile:       utils.ToJSON(req.Profile),
		Status:        domain.StatusSubmitted,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	logger.Info(ctx, "application submitted", "application_id", record.ApplicationID, "kind", kind)
	return record, nil
}

// Get 获取申请记录
func (s *EnrollmentService) Get(ctx context.Context, applicationID string) (*domain.ApplicationRecord, error) {
	return s.repo.Get(ctx, applicationID)
}

// List 按类型和状态列出申请记录
func (s *EnrollmentService) List(ctx context.Context, kind domain.Kind, status domain.Status, limit, offset int) ([]*domain.ApplicationRecord, error) {
	return s.repo.List(ctx, kind, status, limit, offset)
}

// Transition 执行管理员状态迁移，返回迁移前状态。
// 通知和邀请是 at-least-once 副作用：状态先落库，副作用失败只记日志，
// 访问授权由 status/payment_status 联合判定，不依赖副作用成功。
func (s *EnrollmentService) Transition(ctx context.Context, applicationID string, to domain.Status) (domain.Status, error) {
	record, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		return "", err
	}

	previous, err := record.Transition(to)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateStatus(ctx, applicationID, to); err != nil {
		return "", err
	}

	s.applySideEffects(ctx, record, previous, to)

	return previous, nil
}

// applySideEffects 状态迁移后的通知副作用
func (s *EnrollmentService) applySideEffects(ctx context.Context, record *domain.ApplicationRecord, previous, current domain.Status) {
	if s.notifier == nil {
		return
	}

	// 首次进入 pre_approved 时发送密码设置邀请；令牌可随时重新铸造，重试安全
	if current == domain.StatusPreApproved && (previous == domain.StatusSubmitted || previous == domain.StatusPending) {
		token := uuid.New().String()
		if err := s.notifier.SendSetupInvitation(ctx, record.Email, record.FullName, token); err != nil {
			logger.Warn(ctx, "setup invitation failed, status change already committed",
				"application_id", record.ApplicationID,
				"error", err,
			)
		}
	}

	if err := s.notifier.NotifyStatusChanged(ctx, record.Email, string(record.Kind), string(previous), string(current)); err != nil {
		logger.Warn(ctx, "status notification failed, status change already committed",
			"application_id", record.ApplicationID,
			"error", err,
		)
	}
}

// SetDisabled 切换禁用开关
func (s *EnrollmentService) SetDisabled(ctx context.Context, applicationID string, disabled bool) error {
	if _, err := s.repo.Get(ctx, applicationID); err != nil {
		return err
	}
	return s.repo.SetDisabled(ctx, applicationID, disabled)
}

// Access 控制台访问级别查询
func (s *EnrollmentService) Access(ctx context.Context, kind domain.Kind, email string) (domain.AccessLevel, error) {
	record, err := s.repo.GetByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AccessNone, nil
		}
		return domain.AccessNone, err
	}
	return record.DashboardAccess(), nil
}

// mergeProfile 把最新提交的表单字段合并进现有 JSON，替代创建重复记录
func mergeProfile(existing string, incoming map[string]any) string {
	if len(incoming) == 0 {
		return existing
	}

	merged := map[string]any{}
	if existing != "" {
		if err := json.Unmarshal([]byte(existing), &merged); err != nil {
			merged = map[string]any{}
		}
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return utils.ToJSON(merged)
}
