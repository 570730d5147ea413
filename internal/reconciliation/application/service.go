// Package application 支付对账的应用服务
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
	"github.com/wyfcoding/mentormarket/pkg/metrics"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

// ReconciliationService 支付对账应用服务。Process 必须幂等：
// 处理商按至少一次语义投递，重复事件不得产生第二条台账或第二次通知。
type ReconciliationService struct {
	purchases  ledger.PurchaseRepository
	membership domain.MembershipStore
	coaches    domain.CoachDirectory
	notifier   domain.Notifier
	publisher  domain.EventPublisher
	metrics    *metrics.Metrics
	idGen      *utils.SnowflakeID
}

// NewReconciliationService 创建对账应用服务。notifier 与 publisher 可为 nil。
func NewReconciliationService(
	purchases ledger.PurchaseRepository,
	membership domain.MembershipStore,
	coaches domain.CoachDirectory,
	notifier domain.Notifier,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	idGen *utils.SnowflakeID,
) *ReconciliationService {
	return &ReconciliationService{
		purchases:  purchases,
		membership: membership,
		coaches:    coaches,
		notifier:   notifier,
		publisher:  publisher,
		metrics:    m,
		idGen:      idGen,
	}
}

// Process 处理一条已验签的结账事件。
// 返回 nil 表示可向处理商确认（含幂等短路）；返回错误则让处理商重试。
func (s *ReconciliationService) Process(ctx context.Context, event *domain.CheckoutEvent) error {
	if event.Type != domain.EventTypeCheckoutCompleted {
		logger.Debug(ctx, "ignoring event type", "type", event.Type)
		return nil
	}
	if event.PaymentStatus != domain.PaymentStatusPaid {
		logger.Info(ctx, "ignoring unpaid checkout session", "session_id", event.SessionID, "payment_status", event.PaymentStatus)
		return nil
	}

	if event.Metadata["coach_id"] != "" {
		return s.settleMarketplace(ctx, event)
	}
	return s.settleMembership(ctx, event)
}

// settleMarketplace 把教练服务成交写入台账。唯一索引兜底去重，
// 冲突即重复投递，按成功确认。
func (s *ReconciliationService) settleMarketplace(ctx context.Context, event *domain.CheckoutEvent) error {
	coachID := event.Metadata["coach_id"]
	serviceType := ledger.ServiceType(event.Metadata["service_type"])
	if !serviceType.Valid() {
		// metadata 只在结账创建时写入，未知服务类型意味着载荷异常，
		// 不能落为枚举之外的台账记录
		return fmt.Errorf("event %s carries unknown service type %q", event.SessionID, event.Metadata["service_type"])
	}
	payerEmail := event.Metadata["payer_email"]
	if payerEmail == "" {
		payerEmail = event.CustomerEmail
	}

	record := ledger.NewPurchaseRecord(
		fmt.Sprintf("%d", s.idGen.Generate()),
		coachID,
		payerEmail,
		serviceType,
		event.AmountTotal,
		event.Currency,
		event.SessionID,
	)

	if err := s.purchases.Create(ctx, record); err != nil {
		if errors.Is(err, ledger.ErrAlreadyProcessed) {
			logger.Info(ctx, "duplicate settlement delivery", "session_id", event.SessionID)
			if s.metrics != nil {
				s.metrics.WebhookDuplicatesTotal.Inc()
			}
			return nil
		}
		return fmt.Errorf("record purchase: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PurchasesTotal.Inc()
	}
	logger.Info(ctx, "purchase recorded",
		"session_id", event.SessionID,
		"coach_id", coachID,
		"gross_amount", record.GrossAmount,
		"platform_fee", record.PlatformFee,
		"payee_earnings", record.PayeeEarnings,
	)

	// 入账已落库，后续全部尽力而为，失败只记日志不触发重试
	payeeEmail, err := s.coaches.CoachEmail(ctx, coachID)
	if err != nil {
		logger.Warn(ctx, "failed to resolve coach for settlement notice", "coach_id", coachID, "error", err)
	} else if s.notifier != nil {
		if err := s.notifier.PurchaseSettled(ctx, payerEmail, payeeEmail, string(serviceType), record.GrossAmount, record.PayeeEarnings); err != nil {
			logger.Warn(ctx, "failed to send settlement notice", "session_id", event.SessionID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event.SessionID, record); err != nil {
			logger.Warn(ctx, "failed to publish settlement event", "session_id", event.SessionID, "error", err)
		}
	}
	return nil
}

// settleMembership 标记会员订阅已付。只改付费状态，
// 审核状态始终由管理员迁移，支付成功不自动晋级。
func (s *ReconciliationService) settleMembership(ctx context.Context, event *domain.CheckoutEvent) error {
	email := event.Metadata["email"]
	if email == "" {
		email = event.CustomerEmail
	}
	if email == "" {
		return fmt.Errorf("membership event %s carries no email", event.SessionID)
	}

	updated, err := s.membership.MarkPaid(ctx, email, event.CustomerRef, event.SubscriptionRef, time.Now())
	if err != nil {
		return fmt.Errorf("mark membership paid: %w", err)
	}
	if !updated {
		// 未更新有两种可能：已付（重复投递）或查无此人（数据缺口）
		exists, err := s.membership.Exists(ctx, email)
		if err != nil {
			return fmt.Errorf("resolve membership record: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", domain.ErrMembershipNotFound, email)
		}
		logger.Info(ctx, "duplicate membership payment delivery", "session_id", event.SessionID, "email", email)
		if s.metrics != nil {
			s.metrics.WebhookDuplicatesTotal.Inc()
		}
		return nil
	}

	logger.Info(ctx, "membership payment recorded", "session_id", event.SessionID, "email", email)
	if s.notifier != nil {
		if err := s.notifier.MembershipPaid(ctx, email); err != nil {
			logger.Warn(ctx, "failed to send membership payment notice", "email", email, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event.SessionID, event); err != nil {
			logger.Warn(ctx, "failed to publish membership event", "session_id", event.SessionID, "error", err)
		}
	}
	return nil
}
