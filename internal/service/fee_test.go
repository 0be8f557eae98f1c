package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatFeePolicy_SpecScenario(t *testing.T) {
	// Withdraw KES 500 at 5.5% -> fee 27.50, net 472.50.
	p := NewFlatFeePolicy(5.5)
	fee, net := p.Compute(50000)
	assert.Equal(t, int64(2750), fee)
	assert.Equal(t, int64(47250), net)
}

func TestFlatFeePolicy_Rounding(t *testing.T) {
	p := NewFlatFeePolicy(5.5)

	// KES 1.00 -> fee 0.055 -> rounds half away from zero to 0.06.
	fee, net := p.Compute(100)
	assert.Equal(t, int64(6), fee)
	assert.Equal(t, int64(94), net)

	// KES 0.10 -> fee 0.0055 -> 0.01.
	fee, net = p.Compute(10)
	assert.Equal(t, int64(1), fee)
	assert.Equal(t, int64(9), net)
}

func TestTieredFeePolicy_BelowThreshold(t *testing.T) {
	// Withdraw KES 50: fee = 50*3.5% + 10 = 11.75, net 38.25.
	p := NewTieredFeePolicy(3.5, 100, 10, 20)
	fee, net := p.Compute(5000)
	assert.Equal(t, int64(1175), fee)
	assert.Equal(t, int64(3825), net)
}

func TestTieredFeePolicy_AtAndAboveThreshold(t *testing.T) {
	p := NewTieredFeePolicy(3.5, 100, 10, 20)

	// Exactly KES 100: fee = 3.50 + 20 = 23.50.
	fee, net := p.Compute(10000)
	assert.Equal(t, int64(2350), fee)
	assert.Equal(t, int64(7650), net)

	// KES 1000: fee = 35 + 20 = 55.
	fee, net = p.Compute(100000)
	assert.Equal(t, int64(5500), fee)
	assert.Equal(t, int64(94500), net)
}

func TestTieredFeePolicy_TinyAmountFeeExceedsAmount(t *testing.T) {
	// Withdraw KES 5: fee = 0.18 + 10 = 10.18 > 5, net is negative. The
	// orchestrator rejects this before any write; the policy itself stays pure.
	p := NewTieredFeePolicy(3.5, 100, 10, 20)
	fee, net := p.Compute(500)
	assert.Equal(t, int64(1018), fee)
	assert.Equal(t, int64(-518), net)
	assert.Greater(t, fee, int64(500))
}

func TestFeePolicies_FeePlusNetEqualsAmount(t *testing.T) {
	flat := NewFlatFeePolicy(5.5)
	tiered := NewTieredFeePolicy(3.5, 100, 10, 20)

	for _, amount := range []int64{1, 7, 99, 100, 500, 5000, 9999, 10000, 10001, 123457, 100000000} {
		t.Run(fmt.Sprintf("amount_%d", amount), func(t *testing.T) {
			fee, net := flat.Compute(amount)
			assert.Equal(t, amount, fee+net)

			fee, net = tiered.Compute(amount)
			assert.Equal(t, amount, fee+net)
		})
	}
}

func TestTieredFeePolicy_NetMonotonicBelowThreshold(t *testing.T) {
	p := NewTieredFeePolicy(3.5, 100, 10, 20)

	prevNet := int64(-1 << 62)
	for cents := int64(100); cents < 10000; cents += 100 {
		_, net := p.Compute(cents)
		assert.Greater(t, net, prevNet, "net payout must grow with amount below the threshold (%d cents)", cents)
		prevNet = net
	}
}
