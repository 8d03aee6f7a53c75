package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status represents the lifecycle state of an order.
// Orders are always filled in full, so there is no partial state.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusFilled  Status = "FILLED"
)

// Order represents a simulated order and, once filled, its fill details
type Order struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Symbol         string          `json:"symbol"`
	Side           Side            `json:"side"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Status         Status          `json:"status"`
	FilledPrice    decimal.Decimal `json:"filled_price"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Commission     decimal.Decimal `json:"commission"`
	// RealizedPnL is the P&L this fill realized on the ledger (zero for fills
	// that only add to a position).
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	// ClosedQuantity is the part of the fill that reduced an existing
	// position. Positive for closing fills even when they realize nothing.
	ClosedQuantity decimal.Decimal `json:"closed_quantity"`
	Reason         string          `json:"reason,omitempty"`
}

// IsFilled reports whether the order has been executed
func (o Order) IsFilled() bool {
	return o.Status == StatusFilled
}

// IsClosing reports whether the fill reduced, closed or flipped a position
func (o Order) IsClosing() bool {
	return o.IsFilled() && o.ClosedQuantity.IsPositive()
}

// DecisionKind tags the variant held by a Decision
type DecisionKind int

const (
	KindNoOrder DecisionKind = iota
	KindPlaceOrder
)

// Decision is the outcome of order placement: either no order, or an order
// to place. Use NoOrder and Place to construct one.
type Decision struct {
	kind   DecisionKind
	order  Order
	reason string
}

// NoOrder returns a decision carrying no order
func NoOrder(reason string) Decision {
	return Decision{kind: KindNoOrder, reason: reason}
}

// Place returns a decision carrying an order to execute
func Place(o Order) Decision {
	return Decision{kind: KindPlaceOrder, order: o}
}

// Kind returns the decision variant
func (d Decision) Kind() DecisionKind {
	return d.kind
}

// Order returns the order and true when the decision places one
func (d Decision) Order() (Order, bool) {
	if d.kind != KindPlaceOrder {
		return Order{}, false
	}
	return d.order, true
}

// Reason explains why no order was produced
func (d Decision) Reason() string {
	return d.reason
}
