// Package intasend is the HTTP client for the IntaSend-style payment
// provider: the send-money API for payouts and the M-Pesa STK push API for
// collections.
package intasend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"seller-payout-service/config"
	"seller-payout-service/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client implements ports.PayoutGateway and ports.CollectionGateway.
// Every method makes exactly one outbound call and never retries; retry
// decisions belong to the caller, who owns the ledger state.
type Client struct {
	baseURL    string
	apiKey     string
	publicKey  string
	currency   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new provider client from config.
func NewClient(cfg config.GatewayConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		publicKey:  cfg.PublicKey,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type payoutTransaction struct {
	Name    string `json:"name"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type payoutRequest struct {
	Currency     string              `json:"currency"`
	Provider     string              `json:"provider"`
	Transactions []payoutTransaction `json:"transactions"`
}

type payoutResponse struct {
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
}

// Disburse sends netCents to the given M-Pesa number via the send-money API.
// The provider wants amounts as decimal KES strings.
func (c *Client) Disburse(ctx context.Context, phoneNumber string, netCents int64, reference string) (string, error) {
	body := payoutRequest{
		Currency: c.currency,
		Provider: "MPESA-B2C",
		Transactions: []payoutTransaction{{
			Name:    reference,
			Account: phoneNumber,
			Amount:  decimal.New(netCents, -2).StringFixed(2),
		}},
	}

	var resp payoutResponse
	if err := c.post(ctx, "/send-money/initiate/", c.apiKey, body, &resp); err != nil {
		return "", err
	}

	c.log.Info().
		Str("tracking_id", resp.TrackingID).
		Str("reference", reference).
		Int64("net_cents", netCents).
		Msg("payout dispatched")

	return resp.TrackingID, nil
}

type chargeRequest struct {
	PhoneNumber string `json:"phone_number"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	APIRef      string `json:"api_ref"`
}

type chargeResponse struct {
	Invoice struct {
		InvoiceID string `json:"invoice_id"`
		State     string `json:"state"`
	} `json:"invoice"`
}

// Charge initiates an M-Pesa STK push for the given amount.
func (c *Client) Charge(ctx context.Context, phoneNumber string, amountCents int64, apiRef string) (string, error) {
	body := chargeRequest{
		PhoneNumber: phoneNumber,
		Amount:      decimal.New(amountCents, -2).StringFixed(2),
		Currency:    c.currency,
		APIRef:      apiRef,
	}

	var resp chargeResponse
	if err := c.post(ctx, "/payment/mpesa-stk-push/", c.publicKey, body, &resp); err != nil {
		return "", err
	}

	c.log.Info().
		Str("invoice_id", resp.Invoice.InvoiceID).
		Str("api_ref", apiRef).
		Msg("collection charge dispatched")

	return resp.Invoice.InvoiceID, nil
}

// post sends one JSON request and decodes a 2xx response into out. Any other
// status becomes a ports.ProviderError carrying the upstream body.
func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ports.ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
