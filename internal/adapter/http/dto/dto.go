package dto

import (
	"encoding/json"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Amounts cross the API boundary as KES with 2 decimals; internally
// everything is int64 cents. The conversions live here and nowhere else.

// CentsFromKES converts a KES amount to cents, rounding half away from zero.
func CentsFromKES(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// KESFromCents converts cents back to a KES amount for rendering.
func KESFromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// WithdrawRequest is the request body for a withdrawal.
type WithdrawRequest struct {
	SellerID    string          `json:"sellerId" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PhoneNumber string          `json:"phoneNumber" binding:"required"`
	PIN         string          `json:"pin,omitempty"`
}

// WithdrawResponse is the response body for a successful withdrawal.
type WithdrawResponse struct {
	WithdrawalID    string  `json:"withdrawalId"`
	RequestedAmount float64 `json:"requestedAmount"`
	Fee             float64 `json:"fee"`
	NetPayout       float64 `json:"netPayout"`
	TrackingID      string  `json:"trackingId"`
}

// ToWithdrawResponse renders a service result.
func ToWithdrawResponse(r *ports.WithdrawResult) WithdrawResponse {
	return WithdrawResponse{
		WithdrawalID:    r.WithdrawalID.String(),
		RequestedAmount: KESFromCents(r.RequestedAmount),
		Fee:             KESFromCents(r.Fee),
		NetPayout:       KESFromCents(r.NetPayout),
		TrackingID:      r.TrackingID,
	}
}

// WithdrawalRecordResponse is the response for a withdrawal status lookup.
type WithdrawalRecordResponse struct {
	ID             string  `json:"id"`
	SellerID       string  `json:"sellerId"`
	Amount         float64 `json:"amount"`
	Fee            float64 `json:"fee"`
	NetPayout      float64 `json:"netPayout"`
	PhoneNumber    string  `json:"phoneNumber"`
	Status         string  `json:"status"`
	TrackingID     *string `json:"trackingId,omitempty"`
	ProviderError  *string `json:"providerError,omitempty"`
	ReversalReason *string `json:"reversalReason,omitempty"`
	ReversedAt     *string `json:"reversedAt,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// ToWithdrawalRecordResponse renders a withdrawal record.
func ToWithdrawalRecordResponse(w *domain.Withdrawal) WithdrawalRecordResponse {
	resp := WithdrawalRecordResponse{
		ID:             w.ID.String(),
		SellerID:       w.SellerID.String(),
		Amount:         KESFromCents(w.Amount),
		Fee:            KESFromCents(w.FeeAmount),
		NetPayout:      KESFromCents(w.NetPayout),
		PhoneNumber:    w.PhoneNumber,
		Status:         string(w.Status),
		TrackingID:     w.TrackingID,
		ProviderError:  w.ProviderError,
		ReversalReason: w.ReversalReason,
		CreatedAt:      w.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if w.ReversedAt != nil {
		s := w.ReversedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.ReversedAt = &s
	}
	return resp
}

// BalanceResponse is the response for a seller balance query.
type BalanceResponse struct {
	SellerID string  `json:"sellerId"`
	Balance  float64 `json:"balance"`
}

// ChargeRequest is the request body for initiating a collection charge.
type ChargeRequest struct {
	BuyerID     string          `json:"buyerId" binding:"required,uuid"`
	PhoneNumber string          `json:"phoneNumber" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Items       json.RawMessage `json:"items,omitempty"`
}

// ChargeResponse is the response body for an initiated charge.
type ChargeResponse struct {
	InvoiceID string `json:"invoiceId"`
}

// OrderResponse is the response for a transaction lookup.
type OrderResponse struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	BuyerID   string          `json:"buyerId"`
	Items     json.RawMessage `json:"items"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"createdAt"`
}

// ToOrderResponse renders an order.
func ToOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID.String(),
		InvoiceID: o.InvoiceID,
		BuyerID:   o.BuyerID.String(),
		Items:     o.RawItems,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
