package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"seller-payout-service/config"
	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports"
	"seller-payout-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// M-Pesa MSISDN: country code 254 followed by the subscriber number.
var phoneRe = regexp.MustCompile(`^254\d{8,9}$`)

// WithdrawalServiceImpl implements ports.WithdrawalService. It composes the
// balance resolver, fee policy, withdrawal ledger and payout gateway into the
// end-to-end flow. The balance check and every ledger write run inside a
// serializable transaction; the payout call runs outside any transaction and
// is made exactly once per created record.
type WithdrawalServiceImpl struct {
	cfg         config.WithdrawalConfig
	sellers     ports.SellerRepository
	orders      ports.OrderRepository
	withdrawals ports.WithdrawalRepository
	ledgers     ports.LedgerRepository
	resolver    ports.BalanceResolver
	feePolicy   ports.FeePolicy
	payouts     ports.PayoutGateway
	pins        ports.PINVerifier
	guard       ports.InFlightGuard // nil = guard disabled
	notifier    ports.Notifier      // nil = notifications disabled
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	cfg config.WithdrawalConfig,
	sellers ports.SellerRepository,
	orders ports.OrderRepository,
	withdrawals ports.WithdrawalRepository,
	ledgers ports.LedgerRepository,
	resolver ports.BalanceResolver,
	feePolicy ports.FeePolicy,
	payouts ports.PayoutGateway,
	pins ports.PINVerifier,
	guard ports.InFlightGuard,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		cfg:         cfg,
		sellers:     sellers,
		orders:      orders,
		withdrawals: withdrawals,
		ledgers:     ledgers,
		resolver:    resolver,
		feePolicy:   feePolicy,
		payouts:     payouts,
		pins:        pins,
		guard:       guard,
		notifier:    notifier,
		transactor:  transactor,
		log:         log,
	}
}

// Withdraw runs the full withdrawal flow. Validation is fail-fast: nothing is
// written until every check passes.
func (s *WithdrawalServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*ports.WithdrawResult, error) {
	if req.SellerID == uuid.Nil {
		return nil, apperror.Validation("sellerId is required")
	}
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be a positive number")
	}
	if !phoneRe.MatchString(req.PhoneNumber) {
		return nil, apperror.ErrInvalidPhoneNumber()
	}

	fee, net := s.feePolicy.Compute(req.Amount)
	if net <= 0 {
		return nil, apperror.ErrFeeExceedsAmount()
	}

	seller, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get seller: %w", err))
	}
	if seller == nil {
		return nil, apperror.ErrNotFound("seller")
	}
	if seller.HasPIN() {
		ok, err := s.pins.Verify(req.PIN, *seller.PINHash)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
		}
		if !ok {
			return nil, apperror.ErrInvalidPIN()
		}
	}

	// Fast-path balance check. The authoritative check repeats inside the
	// transaction below; this one rejects obvious overdraws without writes.
	balance, err := s.resolver.Resolve(ctx, req.SellerID)
	if err != nil {
		return nil, err
	}
	if req.Amount > balance {
		return nil, apperror.ErrInsufficientBalance()
	}

	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, req.SellerID.String(), s.cfg.InFlightTTL)
		if err != nil {
			s.log.Warn().Err(err).Msg("in-flight guard unavailable, allowing request")
		} else if !acquired {
			return nil, apperror.ErrWithdrawalInFlight()
		} else {
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), req.SellerID.String()); err != nil {
					s.log.Warn().Err(err).Msg("failed to release in-flight guard")
				}
			}()
		}
	}

	now := time.Now().UTC()
	w := &domain.Withdrawal{
		ID:          uuid.New(),
		SellerID:    req.SellerID,
		Amount:      req.Amount,
		FeeAmount:   fee,
		NetPayout:   net,
		PhoneNumber: req.PhoneNumber,
		Status:      domain.WithdrawalStatusPendingPayout,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.createPending(ctx, w); err != nil {
		return nil, err
	}

	trackingID, dispatchErr := s.payouts.Disburse(ctx, req.PhoneNumber, net, w.ID.String())
	if dispatchErr != nil {
		return nil, s.finalizeFailure(ctx, w, dispatchErr)
	}

	if err := s.finalizeSuccess(ctx, w, trackingID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("seller_id", req.SellerID.String()).
		Int64("amount", req.Amount).
		Int64("fee", fee).
		Int64("net_payout", net).
		Str("tracking_id", trackingID).
		Msg("withdrawal payout initiated")

	s.notify(ctx, w)

	return &ports.WithdrawResult{
		WithdrawalID:    w.ID,
		RequestedAmount: req.Amount,
		Fee:             fee,
		NetPayout:       net,
		TrackingID:      trackingID,
	}, nil
}

// GetWithdrawal returns a withdrawal record by id.
func (s *WithdrawalServiceImpl) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get withdrawal: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("withdrawal")
	}
	return w, nil
}

// createPending atomically checks the balance and creates the PENDING_PAYOUT
// record. Under the stored-counter policy the revenue is deducted in the same
// transaction; under the aggregate policy the balance is recomputed against
// the ledger plus the in-flight reservation, and nothing else is touched.
func (s *WithdrawalServiceImpl) createPending(ctx context.Context, w *domain.Withdrawal) error {
	var fn func(tx pgx.Tx) error

	switch s.cfg.BalancePolicy {
	case config.BalancePolicyAggregate:
		fn = func(tx pgx.Tx) error {
			available, err := s.availableInTx(ctx, tx, w.SellerID)
			if err != nil {
				return err
			}
			if w.Amount > available {
				return apperror.ErrInsufficientBalance()
			}
			return s.withdrawals.Create(ctx, tx, w)
		}
	default: // stored-counter
		fn = func(tx pgx.Tx) error {
			seller, err := s.sellers.GetByIDForUpdate(ctx, tx, w.SellerID)
			if err != nil {
				return fmt.Errorf("lock seller: %w", err)
			}
			if seller == nil {
				return apperror.ErrNotFound("seller")
			}
			if seller.Revenue < w.Amount {
				return apperror.ErrInsufficientBalance()
			}
			if err := s.sellers.UpdateRevenue(ctx, tx, seller.ID, seller.Revenue-w.Amount); err != nil {
				return fmt.Errorf("deduct revenue: %w", err)
			}
			return s.withdrawals.Create(ctx, tx, w)
		}
	}

	return s.runSerializable(ctx, fn)
}

// availableInTx computes the aggregate-policy balance inside the transaction:
// lifetime paid revenue minus the withdrawn ledger minus funds reserved by
// PENDING_PAYOUT records. Orders only ever gain revenue, so the order scan may
// read outside the transaction snapshot; the ledger and reservation reads are
// what two concurrent withdrawals race on.
func (s *WithdrawalServiceImpl) availableInTx(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error) {
	orders, err := s.orders.ListPaidBySeller(ctx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("list paid orders: %w", err)
	}
	var revenue int64
	for i := range orders {
		revenue += orders[i].SellerRevenue(sellerID)
	}

	ledger, err := s.ledgers.GetBySellerForUpdate(ctx, tx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("lock ledger: %w", err)
	}
	if ledger != nil {
		revenue -= ledger.TotalWithdrawn
	}

	reserved, err := s.withdrawals.SumPendingBySeller(ctx, tx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("sum pending withdrawals: %w", err)
	}
	return revenue - reserved, nil
}

// finalizeSuccess records the provider's tracking id, moves the record to
// PAYOUT_INITIATED and applies the deferred ledger increment.
func (s *WithdrawalServiceImpl) finalizeSuccess(ctx context.Context, w *domain.Withdrawal, trackingID string) error {
	now := time.Now().UTC()
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		err := s.withdrawals.UpdateStatus(ctx, tx, w.ID,
			[]domain.WithdrawalStatus{domain.WithdrawalStatusPendingPayout},
			domain.WithdrawalStatusPayoutInitiated,
			ports.WithdrawalUpdate{TrackingID: &trackingID},
		)
		if err != nil {
			return fmt.Errorf("mark initiated: %w", err)
		}
		if err := s.ledgers.Increment(ctx, tx, w.SellerID, w.Amount, now); err != nil {
			return fmt.Errorf("increment ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		// The payout is already on its way; surfacing 500 here would invite a
		// duplicate request. Log loudly for reconciliation instead.
		s.log.Error().Err(err).
			Str("withdrawal_id", w.ID.String()).
			Str("tracking_id", trackingID).
			Msg("payout succeeded but finalization failed, manual reconciliation required")
	}
	w.Status = domain.WithdrawalStatusPayoutInitiated
	w.TrackingID = &trackingID
	return nil
}

// finalizeFailure marks the record PAYOUT_FAILED and, under the stored-counter
// policy, applies the compensating re-credit. The whole compensation is one
// transaction guarded by the FAILED -> REVERSED compare-and-set, so replaying
// it after a crash cannot double-credit. The returned error always carries the
// withdrawal id for the caller's follow-up.
func (s *WithdrawalServiceImpl) finalizeFailure(ctx context.Context, w *domain.Withdrawal, dispatchErr error) error {
	providerMsg := dispatchErr.Error()
	reason := "payout dispatch failed"

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		err := s.withdrawals.UpdateStatus(ctx, tx, w.ID,
			[]domain.WithdrawalStatus{domain.WithdrawalStatusPendingPayout},
			domain.WithdrawalStatusPayoutFailed,
			ports.WithdrawalUpdate{ProviderError: &providerMsg},
		)
		if err != nil && !errors.Is(err, ports.ErrStaleTransition) {
			return fmt.Errorf("mark failed: %w", err)
		}

		if s.cfg.BalancePolicy != config.BalancePolicyStored {
			// Aggregate policy: the ledger was never touched, PAYOUT_FAILED
			// is terminal, nothing to compensate.
			return nil
		}

		now := time.Now().UTC()
		err = s.withdrawals.UpdateStatus(ctx, tx, w.ID,
			[]domain.WithdrawalStatus{domain.WithdrawalStatusPayoutFailed},
			domain.WithdrawalStatusPayoutFailedReversed,
			ports.WithdrawalUpdate{ReversalReason: &reason, ReversedAt: &now},
		)
		if err != nil {
			if errors.Is(err, ports.ErrStaleTransition) {
				return nil // already reversed, replay is a no-op
			}
			return fmt.Errorf("mark reversed: %w", err)
		}

		seller, err := s.sellers.GetByIDForUpdate(ctx, tx, w.SellerID)
		if err != nil {
			return fmt.Errorf("lock seller: %w", err)
		}
		if seller == nil {
			return fmt.Errorf("seller %s vanished during reversal", w.SellerID)
		}
		if err := s.sellers.UpdateRevenue(ctx, tx, seller.ID, seller.Revenue+w.Amount); err != nil {
			return fmt.Errorf("re-credit revenue: %w", err)
		}
		return nil
	})
	if err != nil {
		// The seller is left under-credited. This is the one path that needs
		// operator escalation, logged distinctly from ordinary provider errors.
		s.log.Error().Err(err).
			Str("withdrawal_id", w.ID.String()).
			Str("seller_id", w.SellerID.String()).
			Int64("amount", w.Amount).
			Str("alert", "reversal_failure").
			Msg("compensating reversal failed, seller balance requires manual reconciliation")
		return apperror.ErrReversalFailure(w.ID.String(), dispatchErr)
	}

	s.log.Warn().
		Str("withdrawal_id", w.ID.String()).
		Str("seller_id", w.SellerID.String()).
		Str("provider_error", providerMsg).
		Msg("payout dispatch failed")

	w.Status = domain.WithdrawalStatusPayoutFailed
	if s.cfg.BalancePolicy == config.BalancePolicyStored {
		w.Status = domain.WithdrawalStatusPayoutFailedReversed
	}
	w.ProviderError = &providerMsg
	s.notify(ctx, w)

	return apperror.ErrPayoutProvider(w.ID.String(), dispatchErr)
}

// runSerializable maps exhausted-retry conflicts onto the transient error the
// API contract promises, and passes AppErrors from the closure through intact.
func (s *WithdrawalServiceImpl) runSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := s.transactor.WithinSerializable(ctx, fn)
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, ports.ErrSerializationFailure) {
		return apperror.ErrLedgerConflict(err)
	}
	return apperror.InternalError(err)
}

// notify delivers a lifecycle event best-effort.
func (s *WithdrawalServiceImpl) notify(ctx context.Context, w *domain.Withdrawal) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyWithdrawal(ctx, w); err != nil {
		s.log.Warn().Err(err).Str("withdrawal_id", w.ID.String()).Msg("withdrawal notification failed")
	}
}
