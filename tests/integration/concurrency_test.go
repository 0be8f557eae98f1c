package integration

import (
	"net/http"
	"sync"
	"testing"

	"seller-payout-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWithdrawals_Stored fires concurrent withdrawals against a
// seller whose balance covers exactly one of them. The serialized balance
// check must let exactly one through; the rest are rejected without touching
// the balance.
func TestConcurrentWithdrawals_Stored(t *testing.T) {
	app := newTestApp(t, testAppOpts{noGuard: true})
	defer app.close()

	sellerID := app.seedSeller(t, 50_000, "") // KES 500.00, covers one withdrawal

	concurrency := 8
	results := make([]int, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, _ := app.postWithdraw(t, sellerID, 500.00, "")
			results[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, code := range results {
		switch code {
		case http.StatusOK:
			succeeded++
		case http.StatusBadRequest:
			// insufficient balance, expected for the losers
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one withdrawal may win the balance")
	assert.Equal(t, int64(0), app.sellers.revenue(sellerID))
	assert.Equal(t, int64(50_000), app.ledgers.totalWithdrawn(sellerID))
}

// TestConcurrentWithdrawals_Aggregate verifies the reservation arithmetic:
// lifetime revenue of KES 1000 admits exactly three KES 300 withdrawals, no
// matter how the requests interleave, because PENDING_PAYOUT rows count
// against the available balance before the ledger is incremented.
func TestConcurrentWithdrawals_Aggregate(t *testing.T) {
	app := newTestApp(t, testAppOpts{balancePolicy: config.BalancePolicyAggregate, noGuard: true})
	defer app.close()

	sellerID := app.seedSeller(t, 0, "")
	app.seedPaidOrder(t, sellerID, "1000.00")

	concurrency := 10
	results := make([]int, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, _ := app.postWithdraw(t, sellerID, 300.00, "")
			results[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, code := range results {
		if code == http.StatusOK {
			succeeded++
		} else {
			require.Equal(t, http.StatusBadRequest, code)
		}
	}

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, int64(90_000), app.ledgers.totalWithdrawn(sellerID))
}

// TestConcurrentWithdrawals_GuardSerializes runs the same burst with the
// in-flight guard enabled: losers are turned away with 409 before any
// balance work happens.
func TestConcurrentWithdrawals_GuardSerializes(t *testing.T) {
	app := newTestApp(t, testAppOpts{})
	defer app.close()

	sellerID := app.seedSeller(t, 1_000_000, "") // plenty for everyone

	concurrency := 6
	results := make([]int, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp, _ := app.postWithdraw(t, sellerID, 100.00, "")
			results[idx] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	succeeded, blocked := 0, 0
	for _, code := range results {
		switch code {
		case http.StatusOK:
			succeeded++
		case http.StatusConflict:
			blocked++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, concurrency, succeeded+blocked)

	// Every success deducted exactly its gross amount
	assert.Equal(t, int64(1_000_000)-int64(succeeded)*10_000, app.sellers.revenue(sellerID))
	assert.Equal(t, int64(succeeded)*10_000, app.ledgers.totalWithdrawn(sellerID))
}
