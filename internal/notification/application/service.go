// Package application 通知的应用服务
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mentormarket/internal/notification/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/metrics"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

// NotificationService 通知应用服务。所有发送都先落库留痕，
// 发送结果回写状态，供事后排查与补发。
type NotificationService struct {
	repo       domain.NotificationRepository
	sender     domain.Sender
	metrics    *metrics.Metrics
	idGen      *utils.SnowflakeID
	adminEmail string
	baseURL    string
}

// NewNotificationService 创建通知应用服务
func NewNotificationService(
	repo domain.NotificationRepository,
	sender domain.Sender,
	m *metrics.Metrics,
	idGen *utils.SnowflakeID,
	adminEmail string,
	baseURL string,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		sender:     sender,
		metrics:    m,
		idGen:      idGen,
		adminEmail: adminEmail,
		baseURL:    baseURL,
	}
}

// Send 发送一封邮件并留痕
func (s *NotificationService) Send(ctx context.Context, target, subject, content string) error {
	notification := &domain.Notification{
		NotificationID: fmt.Sprintf("%d", s.idGen.Generate()),
		RecipientEmail: target,
		Subject:        subject,
		Content:        content,
		Status:         domain.NotificationStatusPending,
	}
	if err := s.repo.Save(ctx, notification); err != nil {
		// 留痕失败不拦发送，通知本身更重要
		logger.Warn(ctx, "failed to persist notification", "target", target, "error", err)
	}

	if err := s.sender.Send(ctx, target, subject, content); err != nil {
		notification.MarkFailed(err.Error())
		if s.metrics != nil {
			s.metrics.NotificationFailures.Inc()
		}
		if updateErr := s.repo.Update(ctx, notification); updateErr != nil {
			logger.Warn(ctx, "failed to record notification failure", "notification_id", notification.NotificationID, "error", updateErr)
		}
		return fmt.Errorf("send notification to %s: %w", target, err)
	}

	notification.MarkSent(time.Now())
	if s.metrics != nil {
		s.metrics.NotificationsTotal.Inc()
	}
	if err := s.repo.Update(ctx, notification); err != nil {
		logger.Warn(ctx, "failed to record notification delivery", "notification_id", notification.NotificationID, "error", err)
	}
	return nil
}

// SendAdmin 给管理员发内部通知
func (s *NotificationService) SendAdmin(ctx context.Context, subject, content string) error {
	if s.adminEmail == "" {
		return nil
	}
	return s.Send(ctx, s.adminEmail, subject, content)
}

// NotifyStatusChanged 申请状态变更通知
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, email, kind, previous, current string) error {
	subject := "Your application status has been updated"
	content := fmt.Sprintf(
		"Hello,\n\nYour %s application status changed from %s to %s.\n\nSign in to your dashboard for details.",
		kind, previous, current,
	)
	return s.Send(ctx, email, subject, content)
}

// SendSetupInvitation 预审通过后的入驻设置邀请
func (s *NotificationService) SendSetupInvitation(ctx context.Context, email, name, token string) error {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	subject := "Complete your account setup"
	content := fmt.Sprintf(
		"%s,\n\nYour application has been pre-approved. Complete your account setup here:\n\n%s/setup?token=%s\n\nThe link is personal, do not share it.",
		greeting, s.baseURL, token,
	)
	return s.Send(ctx, email, subject, content)
}

// MembershipPaid 会员付费确认通知
func (s *NotificationService) MembershipPaid(ctx context.Context, email string) error {
	subject := "Membership payment received"
	content := "Hello,\n\nWe received your membership payment. Your subscription is now active."
	if err := s.Send(ctx, email, subject, content); err != nil {
		return err
	}
	return s.SendAdmin(ctx, "Membership payment received",
		fmt.Sprintf("Membership payment confirmed for %s.", email))
}

// PurchaseSettled 成交入账通知，买卖双方与管理员各发一封
func (s *NotificationService) PurchaseSettled(ctx context.Context, payerEmail, payeeEmail, serviceType string, gross, earnings int64) error {
	if payerEmail != "" {
		if err := s.Send(ctx, payerEmail, "Payment confirmed",
			fmt.Sprintf("Hello,\n\nYour payment of %s for the %s service is confirmed. Your coach will be in touch shortly.",
				formatCents(gross), serviceType)); err != nil {
			return err
		}
	}
	if err := s.Send(ctx, payeeEmail, "You have a new booking",
		fmt.Sprintf("Hello,\n\nA client booked your %s service. Your earnings for this booking: %s.",
			serviceType, formatCents(earnings))); err != nil {
		return err
	}
	return s.SendAdmin(ctx, "Marketplace purchase settled",
		fmt.Sprintf("Purchase settled: %s service, gross %s, coach %s.", serviceType, formatCents(gross), payeeEmail))
}

// ListByRecipient 查询某收件人的通知历史
func (s *NotificationService) ListByRecipient(ctx context.Context, email string, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByRecipient(ctx, email, limit, offset)
}

func formatCents(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
