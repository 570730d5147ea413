package domain

import (
	"errors"
	"testing"

	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
)

func TestDecodeRateSheetTiered(t *testing.T) {
	sheet, err := DecodeRateSheet(`{"introCallRate":"50","sessionRate":"150","monthlyRate":"500","description":"Growth coaching"}`)
	if err != nil {
		t.Fatalf("DecodeRateSheet: %v", err)
	}
	if sheet.Kind != RateSheetTiered {
		t.Fatalf("kind = %d, want tiered", sheet.Kind)
	}

	cases := []struct {
		serviceType ledger.ServiceType
		cents       int64
	}{
		{ledger.ServiceIntro, 5000},
		{ledger.ServiceSession, 15000},
		{ledger.ServiceMonthly, 50000},
	}
	for _, tc := range cases {
		cents, err := sheet.PriceCents(tc.serviceType)
		if err != nil {
			t.Errorf("PriceCents(%s): %v", tc.serviceType, err)
			continue
		}
		if cents != tc.cents {
			t.Errorf("PriceCents(%s) = %d, want %d", tc.serviceType, cents, tc.cents)
		}
	}
}

func TestDecodeRateSheetLegacy(t *testing.T) {
	sheet, err := DecodeRateSheet(`{"hourlyRate":"120.50"}`)
	if err != nil {
		t.Fatalf("DecodeRateSheet: %v", err)
	}
	if sheet.Kind != RateSheetLegacy {
		t.Fatalf("kind = %d, want legacy", sheet.Kind)
	}

	// 历史格式对所有服务类型使用同一价格
	for _, serviceType := range []ledger.ServiceType{ledger.ServiceIntro, ledger.ServiceSession, ledger.ServiceMonthly} {
		cents, err := sheet.PriceCents(serviceType)
		if err != nil {
			t.Fatalf("PriceCents(%s): %v", serviceType, err)
		}
		if cents != 12050 {
			t.Errorf("PriceCents(%s) = %d, want 12050", serviceType, cents)
		}
	}
}

func TestDecodeRateSheetTieredWinsOverLegacy(t *testing.T) {
	sheet, err := DecodeRateSheet(`{"sessionRate":"200","hourlyRate":"100"}`)
	if err != nil {
		t.Fatalf("DecodeRateSheet: %v", err)
	}
	if sheet.Kind != RateSheetTiered {
		t.Errorf("kind = %d, tiered fields must take precedence", sheet.Kind)
	}
}

func TestDecodeRateSheetErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "130"},
		{"empty object", "{}"},
		{"bad number", `{"sessionRate":"abc"}`},
		{"negative rate", `{"sessionRate":"-10"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeRateSheet(tc.raw); !errors.Is(err, ErrNoRateSheet) {
				t.Errorf("DecodeRateSheet(%q) err = %v, want ErrNoRateSheet", tc.raw, err)
			}
		})
	}
}

func TestPriceCentsMissingTier(t *testing.T) {
	sheet, err := DecodeRateSheet(`{"sessionRate":"150"}`)
	if err != nil {
		t.Fatalf("DecodeRateSheet: %v", err)
	}

	if _, err := sheet.PriceCents(ledger.ServiceMonthly); !errors.Is(err, ErrNoRateSheet) {
		t.Errorf("missing tier err = %v, want ErrNoRateSheet", err)
	}
	if cents, err := sheet.PriceCents(ledger.ServiceSession); err != nil || cents != 15000 {
		t.Errorf("PriceCents(session) = (%d, %v), want (15000, nil)", cents, err)
	}
}

func TestPriceCentsFractionalDollars(t *testing.T) {
	sheet, err := DecodeRateSheet(`{"introCallRate":"49.99"}`)
	if err != nil {
		t.Fatalf("DecodeRateSheet: %v", err)
	}
	cents, err := sheet.PriceCents(ledger.ServiceIntro)
	if err != nil {
		t.Fatalf("PriceCents: %v", err)
	}
	if cents != 4999 {
		t.Errorf("cents = %d, want 4999", cents)
	}
}
