// Package adapter 对账上下文对外部协作方的适配
package adapter

import (
	"context"
	"errors"
	"time"

	enrollment "github.com/wyfcoding/mentormarket/internal/enrollment/domain"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	"github.com/wyfcoding/mentormarket/pkg/mq"
)

type membershipStore struct {
	applications enrollment.ApplicationRepository
}

// NewMembershipStore 把申请记录仓储适配为会员付费状态存储
func NewMembershipStore(applications enrollment.ApplicationRepository) domain.MembershipStore {
	return &membershipStore{applications: applications}
}

func (s *membershipStore) MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error) {
	return s.applications.MarkPaid(ctx, email, customerRef, subscriptionRef, paidAt)
}

func (s *membershipStore) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.applications.GetByEmail(ctx, enrollment.KindEntrepreneur, email)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type coachDirectory struct {
	applications enrollment.ApplicationRepository
}

// NewCoachDirectory 按申请记录解析教练邮箱
func NewCoachDirectory(applications enrollment.ApplicationRepository) domain.CoachDirectory {
	return &coachDirectory{applications: applications}
}

func (d *coachDirectory) CoachEmail(ctx context.Context, coachID string) (string, error) {
	record, err := d.applications.Get(ctx, coachID)
	if err != nil {
		return "", err
	}
	return record.Email, nil
}

type kafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaPublisher 把入账事件广播到 Kafka
func NewKafkaPublisher(producer *mq.KafkaProducer, topic string) domain.EventPublisher {
	return &kafkaPublisher{producer: producer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, key string, event any) error {
	return p.producer.SendMessage(ctx, p.topic, key, event)
}
