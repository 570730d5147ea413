package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wyfcoding/mentormarket/internal/payments"
	"github.com/wyfcoding/mentormarket/internal/payout/domain"
)

type fakeDirectory struct {
	mu      sync.Mutex
	coaches map[string]*domain.Coach
}

func newFakeDirectory(coaches ...*domain.Coach) *fakeDirectory {
	d := &fakeDirectory{coaches: make(map[string]*domain.Coach)}
	for _, coach := range coaches {
		d.coaches[coach.ID] = coach
	}
	return d
}

func (d *fakeDirectory) Coach(ctx context.Context, coachID string) (*domain.Coach, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	coach, ok := d.coaches[coachID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *coach
	return &clone, nil
}

func (d *fakeDirectory) SetConnectedAccount(ctx context.Context, coachID string, accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	coach, ok := d.coaches[coachID]
	if !ok {
		return domain.ErrNotFound
	}
	coach.ConnectedAccountID = accountID
	return nil
}

type countingGateway struct {
	mu           sync.Mutex
	createCalls  int
	accountCalls int
	linkCalls    int
	state        payments.AccountState
	fail         bool
}

func (g *countingGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", payments.ErrProcessorUnavailable
	}
	g.createCalls++
	return fmt.Sprintf("acct_%d", g.createCalls), nil
}

func (g *countingGateway) CreateAccountLink(ctx context.Context, accountID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", payments.ErrProcessorUnavailable
	}
	g.linkCalls++
	return "https://onboarding.example/" + accountID, nil
}

func (g *countingGateway) Account(ctx context.Context, accountID string) (*payments.AccountState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, payments.ErrProcessorUnavailable
	}
	g.accountCalls++
	state := g.state
	return &state, nil
}

func (g *countingGateway) CreateSubscriptionCheckout(ctx context.Context, params *payments.SubscriptionCheckoutParams) (*payments.Session, error) {
	return nil, errors.New("not used")
}

func (g *countingGateway) CreateDestinationCheckout(ctx context.Context, params *payments.DestinationCheckoutParams) (*payments.Session, error) {
	return nil, errors.New("not used")
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	gateway := &countingGateway{}
	svc := NewPayoutService(directory, gateway)
	ctx := context.Background()

	first, err := svc.EnsureAccount(ctx, "coach1")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	second, err := svc.EnsureAccount(ctx, "coach1")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if first != second {
		t.Errorf("account ids differ: %s vs %s", first, second)
	}
	if gateway.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", gateway.createCalls)
	}
}

func TestEnsureAccountUnknownCoach(t *testing.T) {
	svc := NewPayoutService(newFakeDirectory(), &countingGateway{})

	if _, err := svc.EnsureAccount(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountStatusWithoutAccountSkipsGateway(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	gateway := &countingGateway{}
	svc := NewPayoutService(directory, gateway)

	status, err := svc.AccountStatus(context.Background(), "coach1")
	if err != nil {
		t.Fatalf("AccountStatus: %v", err)
	}
	if status.HasAccount || status.OnboardingComplete || status.ChargesEnabled || status.PayoutsEnabled {
		t.Errorf("status = %+v, want all false", status)
	}
	if gateway.accountCalls != 0 {
		t.Errorf("gateway queried for coach without account")
	}
}

func TestAccountStatusQueriesLiveState(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com", ConnectedAccountID: "acct_live"})
	gateway := &countingGateway{state: payments.AccountState{DetailsSubmitted: true, ChargesEnabled: true}}
	svc := NewPayoutService(directory, gateway)

	status, err := svc.AccountStatus(context.Background(), "coach1")
	if err != nil {
		t.Fatalf("AccountStatus: %v", err)
	}
	if !status.HasAccount || !status.OnboardingComplete || !status.ChargesEnabled {
		t.Errorf("status = %+v", status)
	}
	if status.PayoutsEnabled {
		t.Errorf("payouts enabled without processor confirmation")
	}
	if gateway.accountCalls != 1 {
		t.Errorf("account calls = %d, want 1", gateway.accountCalls)
	}
}

func TestOnboardingLinkProvisionsAccountFirst(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	gateway := &countingGateway{}
	svc := NewPayoutService(directory, gateway)

	link, err := svc.OnboardingLink(context.Background(), "coach1")
	if err != nil {
		t.Fatalf("OnboardingLink: %v", err)
	}
	if link != "https://onboarding.example/acct_1" {
		t.Errorf("link = %s", link)
	}
	if gateway.createCalls != 1 || gateway.linkCalls != 1 {
		t.Errorf("calls = (%d create, %d link), want (1, 1)", gateway.createCalls, gateway.linkCalls)
	}
}

func TestResetAccountIssuesFreshAccountNextTime(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	gateway := &countingGateway{}
	svc := NewPayoutService(directory, gateway)
	ctx := context.Background()

	first, err := svc.EnsureAccount(ctx, "coach1")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}

	if err := svc.ResetAccount(ctx, "coach1"); err != nil {
		t.Fatalf("ResetAccount: %v", err)
	}

	second, err := svc.EnsureAccount(ctx, "coach1")
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	if second == first {
		t.Errorf("reset did not sever the old account reference")
	}
	if gateway.createCalls != 2 {
		t.Errorf("create calls = %d, want 2", gateway.createCalls)
	}
}

func TestResetAccountWithoutAccountIsNoop(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	svc := NewPayoutService(directory, &countingGateway{})

	if err := svc.ResetAccount(context.Background(), "coach1"); err != nil {
		t.Errorf("ResetAccount: %v", err)
	}
}

func TestEnsureAccountProcessorFailure(t *testing.T) {
	directory := newFakeDirectory(&domain.Coach{ID: "coach1", Email: "c@example.com"})
	svc := NewPayoutService(directory, &countingGateway{fail: true})

	if _, err := svc.EnsureAccount(context.Background(), "coach1"); !errors.Is(err, payments.ErrProcessorUnavailable) {
		t.Errorf("err = %v, want ErrProcessorUnavailable", err)
	}

	coach, _ := directory.Coach(context.Background(), "coach1")
	if coach.ConnectedAccountID != "" {
		t.Errorf("account id persisted despite processor failure")
	}
}
