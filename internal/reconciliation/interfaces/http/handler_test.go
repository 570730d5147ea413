package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/application"
	"github.com/wyfcoding/mentormarket/internal/reconciliation/domain"
	"github.com/wyfcoding/mentormarket/pkg/utils"
)

type stubVerifier struct {
	event *domain.CheckoutEvent
	err   error
}

func (v *stubVerifier) Verify(payload []byte, signature string) (*domain.CheckoutEvent, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

type countingPurchaseRepo struct {
	mu        sync.Mutex
	calls     int
	bySession map[string]*ledger.PurchaseRecord
}

func newCountingPurchaseRepo() *countingPurchaseRepo {
	return &countingPurchaseRepo{bySession: make(map[string]*ledger.PurchaseRecord)}
}

func (r *countingPurchaseRepo) Create(ctx context.Context, record *ledger.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, exists := r.bySession[record.SourceSessionID]; exists {
		return ledger.ErrAlreadyProcessed
	}
	r.bySession[record.SourceSessionID] = record
	return nil
}

func (r *countingPurchaseRepo) GetBySession(ctx context.Context, sessionID string) (*ledger.PurchaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	record, ok := r.bySession[sessionID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return record, nil
}

func (r *countingPurchaseRepo) ListByPayee(ctx context.Context, payeeID string, limit, offset int) ([]*ledger.PurchaseRecord, error) {
	return nil, nil
}

func (r *countingPurchaseRepo) Totals(ctx context.Context, payeeID string) (*ledger.Totals, error) {
	return &ledger.Totals{}, nil
}

type countingMembershipStore struct {
	mu    sync.Mutex
	calls int
}

func (s *countingMembershipStore) MarkPaid(ctx context.Context, email string, customerRef, subscriptionRef string, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return true, nil
}

func (s *countingMembershipStore) Exists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return true, nil
}

type nullDirectory struct{}

func (nullDirectory) CoachEmail(ctx context.Context, coachID string) (string, error) {
	return "coach@example.com", nil
}

func newTestRouter(verifier domain.EventVerifier, purchases ledger.PurchaseRepository, membership domain.MembershipStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewReconciliationService(purchases, membership, nullDirectory{}, nil, nil, nil, utils.NewSnowflakeID(1))
	router := gin.New()
	NewWebhookHandler(verifier, svc, nil).RegisterRoutes(router)
	return router
}

func postWebhook(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookInvalidSignatureTouchesNoStorage(t *testing.T) {
	purchases := newCountingPurchaseRepo()
	membership := &countingMembershipStore{}
	router := newTestRouter(&stubVerifier{err: domain.ErrInvalidSignature}, purchases, membership)

	recorder := postWebhook(router, `{"forged":true}`)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
	if purchases.calls != 0 || membership.calls != 0 {
		t.Errorf("storage touched on invalid signature: purchases=%d membership=%d", purchases.calls, membership.calls)
	}
}

func TestWebhookProcessesMarketplaceEvent(t *testing.T) {
	purchases := newCountingPurchaseRepo()
	verifier := &stubVerifier{event: &domain.CheckoutEvent{
		Type:          domain.EventTypeCheckoutCompleted,
		SessionID:     "cs_1",
		PaymentStatus: domain.PaymentStatusPaid,
		AmountTotal:   15000,
		Currency:      "usd",
		Metadata:      map[string]string{"coach_id": "app_coach1", "service_type": "session"},
	}}
	router := newTestRouter(verifier, purchases, &countingMembershipStore{})

	recorder := postWebhook(router, `{}`)

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body %s", recorder.Code, recorder.Body.String())
	}
	if _, ok := purchases.bySession["cs_1"]; !ok {
		t.Error("purchase not recorded")
	}
}

func TestWebhookDuplicateDeliveryIsAcknowledged(t *testing.T) {
	purchases := newCountingPurchaseRepo()
	verifier := &stubVerifier{event: &domain.CheckoutEvent{
		Type:          domain.EventTypeCheckoutCompleted,
		SessionID:     "cs_1",
		PaymentStatus: domain.PaymentStatusPaid,
		AmountTotal:   15000,
		Metadata:      map[string]string{"coach_id": "app_coach1", "service_type": "session"},
	}}
	router := newTestRouter(verifier, purchases, &countingMembershipStore{})

	if code := postWebhook(router, `{}`).Code; code != http.StatusOK {
		t.Fatalf("first delivery status = %d", code)
	}
	if code := postWebhook(router, `{}`).Code; code != http.StatusOK {
		t.Errorf("duplicate delivery status = %d, want 200", code)
	}
	if len(purchases.bySession) != 1 {
		t.Errorf("records = %d, want 1", len(purchases.bySession))
	}
}

func TestWebhookAcknowledgesUnrelatedEventTypes(t *testing.T) {
	purchases := newCountingPurchaseRepo()
	verifier := &stubVerifier{event: &domain.CheckoutEvent{Type: "customer.updated"}}
	router := newTestRouter(verifier, purchases, &countingMembershipStore{})

	recorder := postWebhook(router, `{}`)

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", recorder.Code)
	}
	if purchases.calls != 0 {
		t.Errorf("ledger touched by unrelated event")
	}
}
