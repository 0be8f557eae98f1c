package service

import (
	"seller-payout-service/config"
	"seller-payout-service/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Monetary rounding is to 2 decimal places (KES minor units), half away from
// zero. All fee math runs through decimal so the policies stay exact; cents
// go in, cents come out.

// FlatFeePolicy charges a single percentage of the gross amount.
type FlatFeePolicy struct {
	rate decimal.Decimal // e.g. 0.055
}

// NewFlatFeePolicy creates a flat policy from a percentage (5.5 means 5.5%).
func NewFlatFeePolicy(ratePercent float64) *FlatFeePolicy {
	return &FlatFeePolicy{rate: decimal.NewFromFloat(ratePercent).Div(decimal.NewFromInt(100))}
}

// Compute returns fee and net payout in cents. fee + net == amount.
func (p *FlatFeePolicy) Compute(amountCents int64) (int64, int64) {
	amount := decimal.New(amountCents, -2)
	fee := amount.Mul(p.rate).Round(2)
	feeCents := fee.Shift(2).IntPart()
	return feeCents, amountCents - feeCents
}

// TieredFeePolicy charges an agency percentage plus a fixed fee that steps up
// at a threshold amount.
type TieredFeePolicy struct {
	rate           decimal.Decimal
	thresholdCents int64
	feeBelowCents  int64
	feeAboveCents  int64
}

// NewTieredFeePolicy creates a tiered policy. ratePercent is the agency rate
// (3.5 means 3.5%); threshold and the fixed fees are whole KES.
func NewTieredFeePolicy(ratePercent float64, thresholdKES, feeBelowKES, feeAboveKES int64) *TieredFeePolicy {
	return &TieredFeePolicy{
		rate:           decimal.NewFromFloat(ratePercent).Div(decimal.NewFromInt(100)),
		thresholdCents: thresholdKES * 100,
		feeBelowCents:  feeBelowKES * 100,
		feeAboveCents:  feeAboveKES * 100,
	}
}

// Compute returns fee and net payout in cents. fee + net == amount.
func (p *TieredFeePolicy) Compute(amountCents int64) (int64, int64) {
	amount := decimal.New(amountCents, -2)
	variable := amount.Mul(p.rate).Round(2).Shift(2).IntPart()

	fixed := p.feeBelowCents
	if amountCents >= p.thresholdCents {
		fixed = p.feeAboveCents
	}

	feeCents := variable + fixed
	return feeCents, amountCents - feeCents
}

// NewFeePolicy builds the configured policy.
func NewFeePolicy(cfg config.WithdrawalConfig) ports.FeePolicy {
	if cfg.FeePolicy == config.FeePolicyTiered {
		return NewTieredFeePolicy(cfg.TieredRatePercent, cfg.TieredThreshold, cfg.TieredFeeBelow, cfg.TieredFeeAbove)
	}
	return NewFlatFeePolicy(cfg.FlatRatePercent)
}
