package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"seller-payout-service/internal/core/domain"

	"github.com/rs/zerolog"
)

// Notification event types.
const (
	EventWithdrawalInitiated = "WITHDRAWAL_INITIATED"
	EventWithdrawalFailed    = "WITHDRAWAL_FAILED"
	EventWithdrawalReversed  = "WITHDRAWAL_REVERSED"
)

// NotificationPayload is the JSON structure posted to the mail relay.
type NotificationPayload struct {
	EventType    string `json:"event_type"`
	WithdrawalID string `json:"withdrawal_id"`
	SellerID     string `json:"seller_id"`
	Amount       int64  `json:"amount"`
	Fee          int64  `json:"fee"`
	NetPayout    int64  `json:"net_payout"`
	Status       string `json:"status"`
	TrackingID   string `json:"tracking_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotificationService posts withdrawal lifecycle events to the configured
// relay URL. Delivery is best-effort: callers log failures and move on.
type NotificationService struct {
	url        string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(url string, httpClient HTTPClient, log zerolog.Logger) *NotificationService {
	return &NotificationService{url: url, httpClient: httpClient, log: log}
}

// NotifyWithdrawal sends one event for the withdrawal's current state.
func (s *NotificationService) NotifyWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	if s.url == "" {
		return nil
	}

	eventType := EventWithdrawalInitiated
	switch w.Status {
	case domain.WithdrawalStatusPayoutFailed:
		eventType = EventWithdrawalFailed
	case domain.WithdrawalStatusPayoutFailedReversed:
		eventType = EventWithdrawalReversed
	}

	payload := NotificationPayload{
		EventType:    eventType,
		WithdrawalID: w.ID.String(),
		SellerID:     w.SellerID.String(),
		Amount:       w.Amount,
		Fee:          w.FeeAmount,
		NetPayout:    w.NetPayout,
		Status:       string(w.Status),
		Timestamp:    time.Now().Unix(),
	}
	if w.TrackingID != nil {
		payload.TrackingID = *w.TrackingID
	}
	if w.ProviderError != nil {
		payload.Reason = *w.ProviderError
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification relay returned %d", resp.StatusCode)
	}

	s.log.Debug().
		Str("event_type", eventType).
		Str("withdrawal_id", w.ID.String()).
		Msg("withdrawal notification delivered")

	return nil
}
