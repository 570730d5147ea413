// Package domain 结账编排的领域模型
package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	ledger "github.com/wyfcoding/mentormarket/internal/ledger/domain"
)

var (
	// ErrNoRateSheet 教练未配置价目表
	ErrNoRateSheet = errors.New("rate sheet not configured")
	// ErrCoachNotOnboarded 教练尚未完成收款开通，禁止创建无法分账的支付
	ErrCoachNotOnboarded = errors.New("coach has not completed payment onboarding")
)

// RateSheetKind 价目表形态
type RateSheetKind int

const (
	// RateSheetTiered 按服务类型分价
	RateSheetTiered RateSheetKind = iota
	// RateSheetLegacy 历史单一时薪格式
	RateSheetLegacy
)

// RateSheet 价目表，历史单价格式是显式变体而不是解析兜底
type RateSheet struct {
	Kind RateSheetKind

	// Tiered 变体
	IntroCallRate decimal.Decimal
	SessionRate   decimal.Decimal
	MonthlyRate   decimal.Decimal
	Description   string

	// Legacy 变体
	HourlyRate decimal.Decimal
}

// rateSheetJSON 存储格式。价格以字符串存储（美元），历史数据只有 hourlyRate。
type rateSheetJSON struct {
	IntroCallRate string `json:"introCallRate"`
	SessionRate   string `json:"sessionRate"`
	MonthlyRate   string `json:"monthlyRate"`
	Description   string `json:"description"`
	HourlyRate    string `json:"hourlyRate"`
}

// DecodeRateSheet 在边界解码一次价目表，之后全程使用解码结果
func DecodeRateSheet(raw string) (*RateSheet, error) {
	if raw == "" {
		return nil, ErrNoRateSheet
	}

	var data rateSheetJSON
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRateSheet, err)
	}

	if data.IntroCallRate != "" || data.SessionRate != "" || data.MonthlyRate != "" {
		sheet := &RateSheet{Kind: RateSheetTiered, Description: data.Description}
		var err error
		if sheet.IntroCallRate, err = parseRate(data.IntroCallRate); err != nil {
			return nil, err
		}
		if sheet.SessionRate, err = parseRate(data.SessionRate); err != nil {
			return nil, err
		}
		if sheet.MonthlyRate, err = parseRate(data.MonthlyRate); err != nil {
			return nil, err
		}
		return sheet, nil
	}

	if data.HourlyRate != "" {
		rate, err := parseRate(data.HourlyRate)
		if err != nil {
			return nil, err
		}
		return &RateSheet{Kind: RateSheetLegacy, HourlyRate: rate}, nil
	}

	return nil, ErrNoRateSheet
}

// PriceCents 按服务类型解析价格，返回最小货币单位（分）
func (rs *RateSheet) PriceCents(serviceType ledger.ServiceType) (int64, error) {
	var rate decimal.Decimal

	switch rs.Kind {
	case RateSheetLegacy:
		rate = rs.HourlyRate
	default:
		switch serviceType {
		case ledger.ServiceIntro:
			rate = rs.IntroCallRate
		case ledger.ServiceSession:
			rate = rs.SessionRate
		case ledger.ServiceMonthly:
			rate = rs.MonthlyRate
		default:
			return 0, fmt.Errorf("%w: unknown service type %q", ErrNoRateSheet, serviceType)
		}
	}

	if rate.IsZero() {
		return 0, fmt.Errorf("%w: no price for service type %q", ErrNoRateSheet, serviceType)
	}

	return rate.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

func parseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad rate %q", ErrNoRateSheet, raw)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative rate %q", ErrNoRateSheet, raw)
	}
	return rate, nil
}
