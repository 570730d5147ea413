package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

type fakePurchaseRepo struct {
	mu        sync.Mutex
	bySession map[string]*ledger.PurchaseRecord
	failAll   bool
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{bySession: make(map[string]*ledger.PurchaseRecord)}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, record *ledger.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("db down")
	}
	if _, exists := r.bySession[record.SourceSessionID]; exists {
		return ledger.ErrAlreadyProcessed
	}
	r.bySession[record.SourceSessionID] = record
	return nil
}

func (r *fakePurchaseRepo) GetBySession(ctx context.Context, sessionID string) (*ledger.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.bySession[sessionID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return record, nil
}

func (r *fakePurchaseRepo) ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*ledger.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.PurchaseRecord
	for _, record := range r.bySession {
		if record.PayeeID == payeeID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) Totals(ctx context.Context, payeeID string) (*ledger.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := &ledger.Totals{}
	for _, record := range r.bySession {
		if payeeID != "" && record.PayeeID != payeeID {
			continue
		}
		totals.GrossAmount += record.GrossAmount
		totals.PlatformFee += record.PlatformFee
		totals.PayeeEarnings += record.PayeeEarnings
		totals.Count++
	}
	return totals, nil
}

type fakeMembershipStore struct {
	mu      sync.Mutex
	paid    map[string]bool
	known   map[string]bool
	failAll bool
}

func newFakeMembershipStore(emails ...string) *fakeMembershipStore {
	s := &fakeMembershipStore{paid: make(map[string]bool), known: make(map[string]bool)}
	for _, email := range emails {
		s.known[email] = true
	}
	return s
}

func (s *fakeMembershipStore) MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return false, errors.New("db down")
	}
	if !s.known[email] || s.paid[email] {
		return false, nil
	}
	s.paid[email] = true
	return true, nil
}

func (s *fakeMembershipStore) Exists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return false, errors.New("db down")
	}
	return s.known[email], nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	memberships []string
	purchases   []string
}

func (n *recordingNotifier) MembershipPaid(ctx context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.memberships = append(n.memberships, email)
	return nil
}

func (n *recordingNotifier) PurchaseSettled(ctx context.Context, payerEmail, payeeEmail, serviceType string, gross, earnings int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.purchases = append(n.purchases, payeeEmail)
	return nil
}

type staticDirectory struct {
	emails map[string]string
}

func (d *staticDirectory) CoachEmail(ctx context.Context, coachID string) (string, error) {
	email, ok := d.emails[coachID]
	if !ok {
		return "", errors.New("coach not found")
	}
	return email, nil
}

func marketplaceEvent(sessionID string) *domain.CheckoutEvent {
	return &domain.CheckoutEvent{
		Type:          domain.EventTypeCheckoutCompleted,
		SessionID:     sessionID,
		PaymentStatus: domain.PaymentStatusPaid,
		AmountTotal:   15000,
		Currency:      "usd",
		CustomerEmail: "client@example.com",
		Metadata: map[string]string{
			"coach_id":     "app_coach1",
			"service_type": "session",
			"payer_email":  "client@example.com",
		},
	}
}

func membershipEvent(sessionID, email string) *domain.CheckoutEvent {
	return &domain.CheckoutEvent{
		Type:          domain.EventTypeCheckoutCompleted,
		SessionID:     sessionID,
		PaymentStatus: domain.PaymentStatusPaid,
		CustomerEmail: email,
		CustomerRef:   "cus_1",
		Metadata:      map[string]string{"email": email},
	}
}

func newReconService(purchases *fakePurchaseRepo, membership *fakeMembershipStore, notifier *recordingNotifier) *ReconciliationService {
	directory := &staticDirectory{emails: map[string]string{"app_coach1": "coach@example.com"}}
	return NewReconciliationService(purchases, membership, directory, notifier, nil, nil, utils.NewSnowflakeID(1))
}

func TestProcessMarketplaceSettlement(t *testing.T) {
	purchases := newFakePurchaseRepo()
	notifier := &recordingNotifier{}
	svc := newReconService(purchases, newFakeMembershipStore(), notifier)

	if err := svc.Process(context.Background(), marketplaceEvent("cs_1")); err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, err := purchases.GetBySession(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("purchase not recorded: %v", err)
	}
	if record.GrossAmount != 15000 || record.PlatformFee != 3000 || record.PayeeEarnings != 12000 {
		t.Errorf("amounts = (%d, %d, %d), want (15000, 3000, 12000)",
			record.GrossAmount, record.PlatformFee, record.PayeeEarnings)
	}
	if record.PayeeID != "app_coach1" {
		t.Errorf("payee = %s, want app_coach1", record.PayeeID)
	}
	if len(notifier.purchases) != 1 {
		t.Errorf("settlement notices = %d, want 1", len(notifier.purchases))
	}
}

func TestProcessDuplicateMarketplaceDelivery(t *testing.T) {
	purchases := newFakePurchaseRepo()
	notifier := &recordingNotifier{}
	svc := newReconService(purchases, newFakeMembershipStore(), notifier)
	ctx := context.Background()

	if err := svc.Process(ctx, marketplaceEvent("cs_1")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.Process(ctx, marketplaceEvent("cs_1")); err != nil {
		t.Fatalf("duplicate delivery must be acknowledged: %v", err)
	}

	if len(purchases.bySession) != 1 {
		t.Errorf("records = %d, want 1", len(purchases.bySession))
	}
	if len(notifier.purchases) != 1 {
		t.Errorf("settlement notices = %d, want 1 (no duplicate notice)", len(notifier.purchases))
	}
}

func TestProcessMarketplaceStoreFailureTriggersRetry(t *testing.T) {
	purchases := newFakePurchaseRepo()
	purchases.failAll = true
	svc := newReconService(purchases, newFakeMembershipStore(), &recordingNotifier{})

	if err := svc.Process(context.Background(), marketplaceEvent("cs_1")); err == nil {
		t.Fatal("store failure must surface so the processor retries")
	}
}

func TestProcessMembershipPayment(t *testing.T) {
	membership := newFakeMembershipStore("founder@example.com")
	notifier := &recordingNotifier{}
	svc := newReconService(newFakePurchaseRepo(), membership, notifier)

	if err := svc.Process(context.Background(), membershipEvent("cs_m1", "founder@example.com")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !membership.paid["founder@example.com"] {
		t.Error("membership not marked paid")
	}
	if len(notifier.memberships) != 1 {
		t.Errorf("membership notices = %d, want 1", len(notifier.memberships))
	}
}

func TestProcessDuplicateMembershipDelivery(t *testing.T) {
	membership := newFakeMembershipStore("founder@example.com")
	notifier := &recordingNotifier{}
	svc := newReconService(newFakePurchaseRepo(), membership, notifier)
	ctx := context.Background()

	if err := svc.Process(ctx, membershipEvent("cs_m1", "founder@example.com")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.Process(ctx, membershipEvent("cs_m1", "founder@example.com")); err != nil {
		t.Fatalf("duplicate delivery must be acknowledged: %v", err)
	}
	if len(notifier.memberships) != 1 {
		t.Errorf("membership notices = %d, want 1", len(notifier.memberships))
	}
}

func TestProcessMembershipUnknownApplicant(t *testing.T) {
	svc := newReconService(newFakePurchaseRepo(), newFakeMembershipStore(), &recordingNotifier{})

	err := svc.Process(context.Background(), membershipEvent("cs_m1", "ghost@example.com"))
	if !errors.Is(err, domain.ErrMembershipNotFound) {
		t.Errorf("err = %v, want ErrMembershipNotFound", err)
	}
}

func TestProcessIgnoresOtherEventTypes(t *testing.T) {
	purchases := newFakePurchaseRepo()
	svc := newReconService(purchases, newFakeMembershipStore(), &recordingNotifier{})

	event := marketplaceEvent("cs_1")
	event.Type = "invoice.paid"
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("unrelated event types must be acknowledged: %v", err)
	}
	if len(purchases.bySession) != 0 {
		t.Error("unrelated event wrote to the ledger")
	}
}

func TestProcessIgnoresUnpaidSessions(t *testing.T) {
	purchases := newFakePurchaseRepo()
	svc := newReconService(purchases, newFakeMembershipStore(), &recordingNotifier{})

	event := marketplaceEvent("cs_1")
	event.PaymentStatus = "unpaid"
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("unpaid session must be acknowledged: %v", err)
	}
	if len(purchases.bySession) != 0 {
		t.Error("unpaid session wrote to the ledger")
	}
}

func TestProcessRejectsUnknownServiceType(t *testing.T) {
	purchases := newFakePurchaseRepo()
	svc := newReconService(purchases, newFakeMembershipStore(), &recordingNotifier{})

	event := marketplaceEvent("cs_1")
	event.Metadata["service_type"] = "retainer"
	if err := svc.Process(context.Background(), event); err == nil {
		t.Fatal("unknown service type must be rejected")
	}

	event.Metadata["service_type"] = ""
	if err := svc.Process(context.Background(), event); err == nil {
		t.Fatal("missing service type must be rejected")
	}

	if len(purchases.bySession) != 0 {
		t.Errorf("ledger row written outside the service type enum")
	}
}

func TestProcessUsesSettledAmountNotRateSheet(t *testing.T) {
	purchases := newFakePurchaseRepo()
	svc := newReconService(purchases, newFakeMembershipStore(), &recordingNotifier{})

	// 促销价结算：成交额与价目表不同，以结算额为准
	event := marketplaceEvent("cs_promo")
	event.AmountTotal = 9900
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, _ := purchases.GetBySession(context.Background(), "cs_promo")
	if record.GrossAmount != 9900 {
		t.Errorf("gross = %d, want settled 9900", record.GrossAmount)
	}
	if record.PlatformFee != 1980 || record.PayeeEarnings != 7920 {
		t.Errorf("split = (%d, %d), want (1980, 7920)", record.PlatformFee, record.PayeeEarnings)
	}
}
