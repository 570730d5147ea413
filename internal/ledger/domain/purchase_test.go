package domain

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		gross    int64
		fee      int64
		earnings int64
	}{
		{15000, 3000, 12000},
		{100, 20, 80},
		{0, 0, 0},
		{1, 0, 1},
		{4, 0, 4},
		{5, 1, 4},
		{99, 19, 80},
		{101, 20, 81},
		{12345, 2469, 9876},
		{9999, 1999, 8000},
	}

	for _, tc := range cases {
		fee, earnings := Split(tc.gross)
		if fee != tc.fee || earnings != tc.earnings {
			t.Errorf("Split(%d) = (%d, %d), want (%d, %d)", tc.gross, fee, earnings, tc.fee, tc.earnings)
		}
	}
}

func TestSplitConservesGross(t *testing.T) {
	for gross := int64(0); gross < 10000; gross++ {
		fee, earnings := Split(gross)
		if fee+earnings != gross {
			t.Fatalf("Split(%d) leaks: fee %d + earnings %d != gross", gross, fee, earnings)
		}
		if fee < 0 || earnings < 0 {
			t.Fatalf("Split(%d) produced negative amount: fee %d, earnings %d", gross, fee, earnings)
		}
	}
}

func TestNewPurchaseRecordComputesSplit(t *testing.T) {
	record := NewPurchaseRecord("p1", "coach1", "payer@example.com", ServiceSession, 15000, "usd", "cs_123")

	if record.GrossAmount != 15000 {
		t.Errorf("gross = %d, want 15000", record.GrossAmount)
	}
	if record.PlatformFee != 3000 {
		t.Errorf("fee = %d, want 3000", record.PlatformFee)
	}
	if record.PayeeEarnings != 12000 {
		t.Errorf("earnings = %d, want 12000", record.PayeeEarnings)
	}
	if record.Status != PurchaseCompleted {
		t.Errorf("status = %s, want completed", record.Status)
	}
	if record.SourceSessionID != "cs_123" {
		t.Errorf("session = %s, want cs_123", record.SourceSessionID)
	}
}

func TestServiceTypeValid(t *testing.T) {
	for _, st := range []ServiceType{ServiceIntro, ServiceSession, ServiceMonthly} {
		if !st.Valid() {
			t.Errorf("%s should be valid", st)
		}
	}
	if ServiceType("consulting").Valid() {
		t.Error("unknown service type accepted")
	}
}
