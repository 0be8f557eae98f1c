package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment lifecycle of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Order is produced by the checkout flow and is read-only here. RawItems keeps
// the line items exactly as the checkout wrote them (JSONB); older revisions of
// the checkout stored a list, a keyed map, or a bare object.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID string          `json:"invoice_id"` // Provider invoice/tracking id from collection
	BuyerID   uuid.UUID       `json:"buyer_id"`
	RawItems  json.RawMessage `json:"items"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LineItem is the normalized form of one order line.
type LineItem struct {
	SellerID uuid.UUID
	Price    int64 // Unit price in KES cents
	Quantity int64
}

// LineItems normalizes RawItems into a uniform slice. Supported shapes:
// a JSON array of items, a map keyed by arbitrary ids, or a single bare item
// object. Missing or malformed sellerId drops the item; missing or malformed
// price/quantity count as 0.
func (o *Order) LineItems() []LineItem {
	return NormalizeLineItems(o.RawItems)
}

// SellerRevenue sums price×quantity over the given seller's line items.
func (o *Order) SellerRevenue(sellerID uuid.UUID) int64 {
	var total int64
	for _, it := range o.LineItems() {
		if it.SellerID == sellerID {
			total += it.Price * it.Quantity
		}
	}
	return total
}

// rawLineItem tolerates the loose typing of the source documents: prices and
// quantities appear as numbers or numeric strings.
type rawLineItem struct {
	SellerID string          `json:"sellerId"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
}

// NormalizeLineItems parses raw order items into LineItems. It never fails:
// unparseable input yields an empty slice.
func NormalizeLineItems(raw []byte) []LineItem {
	if len(raw) == 0 {
		return nil
	}

	var entries []rawLineItem

	var asList []rawLineItem
	if err := json.Unmarshal(raw, &asList); err == nil {
		entries = asList
	} else {
		var asMap map[string]rawLineItem
		if err := json.Unmarshal(raw, &asMap); err == nil && looksKeyed(raw) {
			for _, it := range asMap {
				entries = append(entries, it)
			}
		} else {
			var single rawLineItem
			if err := json.Unmarshal(raw, &single); err == nil {
				entries = []rawLineItem{single}
			}
		}
	}

	items := make([]LineItem, 0, len(entries))
	for _, e := range entries {
		sellerID, err := uuid.Parse(e.SellerID)
		if err != nil {
			continue
		}
		items = append(items, LineItem{
			SellerID: sellerID,
			Price:    centsFromLoose(e.Price),
			Quantity: intFromLoose(e.Quantity),
		})
	}
	return items
}

// looksKeyed distinguishes {"a":{...}} from a bare item object {"sellerId":...}:
// a bare item decoded as map[string]rawLineItem produces only zero values.
func looksKeyed(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	for k := range probe {
		if k == "sellerId" || k == "price" || k == "quantity" {
			return false
		}
	}
	return len(probe) > 0
}

// centsFromLoose converts a KES amount (number or numeric string) to cents.
// Malformed values count as 0.
func centsFromLoose(raw json.RawMessage) int64 {
	d, ok := decimalFromLoose(raw)
	if !ok {
		return 0
	}
	return d.Shift(2).Round(0).IntPart()
}

// intFromLoose converts a quantity (number or numeric string) to int64,
// truncating fractions. Malformed values count as 0.
func intFromLoose(raw json.RawMessage) int64 {
	d, ok := decimalFromLoose(raw)
	if !ok {
		return 0
	}
	return d.IntPart()
}

func decimalFromLoose(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if d, err := decimal.NewFromString(num.String()); err == nil {
			return d, true
		}
		return decimal.Zero, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
