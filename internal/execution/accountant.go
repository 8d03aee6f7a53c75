// Package execution sizes orders from signals and fills them against a
// ledger, keeping the immutable log of filled orders.
package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/order"
	ordererrors "github.com/guyghost/backtestcore/internal/order/errors"
	"github.com/guyghost/backtestcore/internal/strategy"
	"github.com/shopspring/decimal"
)

// ErrNotPending is returned when executing an order that was already filled
var ErrNotPending = errors.New("order is not pending")

// No-order reasons
const (
	ReasonHold         = "hold"
	ReasonAlreadyLong  = "already long"
	ReasonFlat         = "no position to close"
	ReasonInvalidPrice = "invalid signal price"
	ReasonZeroQuantity = "zero quantity"
)

// Accountant turns signals into orders and applies fills to its ledger
type Accountant struct {
	ledger *ledger.Ledger
	orders []order.Order
	nextID int
}

// NewAccountant creates an accountant over l
func NewAccountant(l *ledger.Ledger) *Accountant {
	return &Accountant{ledger: l}
}

// Ledger returns the ledger the accountant fills against
func (a *Accountant) Ledger() *ledger.Ledger {
	return a.ledger
}

// PlaceOrder decides the order for a signal.
//
// BUY is refused while long. Otherwise it sizes capital*fraction/price,
// which against a short covers and flips through the ledger. SELL while
// long closes the whole long; otherwise it is sized like BUY and opens or
// extends a short.
func (a *Accountant) PlaceOrder(signal strategy.Signal, fraction float64, capital decimal.Decimal) order.Decision {
	side, ok := signal.Side()
	if !ok {
		return order.NoOrder(ReasonHold)
	}
	if !signal.Price.IsPositive() {
		return order.NoOrder(ReasonInvalidPrice)
	}

	pos, _ := a.ledger.Position(signal.Symbol)

	var qty decimal.Decimal
	switch {
	case side == order.SideBuy && pos.IsLong():
		return order.NoOrder(ReasonAlreadyLong)
	case side == order.SideSell && pos.IsLong():
		qty = pos.Quantity
	default:
		qty = capital.Mul(decimal.NewFromFloat(fraction)).Div(signal.Price)
	}

	if !qty.IsPositive() {
		return order.NoOrder(ReasonZeroQuantity)
	}

	return order.Place(a.newOrder(signal.Timestamp, signal.Symbol, side, qty, signal.Price, signal.Reason))
}

// CloseOrder decides an order that fully closes the position in symbol
func (a *Accountant) CloseOrder(symbol string, ts time.Time, price decimal.Decimal, reason string) order.Decision {
	pos, _ := a.ledger.Position(symbol)
	if pos.IsFlat() {
		return order.NoOrder(ReasonFlat)
	}
	if !price.IsPositive() {
		return order.NoOrder(ReasonInvalidPrice)
	}

	side := order.SideSell
	if pos.IsShort() {
		side = order.SideBuy
	}
	return order.Place(a.newOrder(ts, symbol, side, pos.Quantity.Abs(), price, reason))
}

// Execute fills o in full at price, charging quantity*price*commissionRate,
// and appends the filled order to the log
func (a *Accountant) Execute(o order.Order, price, commissionRate decimal.Decimal) (order.Order, error) {
	if o.Status != order.StatusPending {
		return order.Order{}, ordererrors.New(ordererrors.OperationExecute, o.ID, fmt.Errorf("%w: %s", ErrNotPending, o.Status))
	}

	commission := o.Quantity.Mul(price).Mul(commissionRate)
	before, _ := a.ledger.Position(o.Symbol)
	realized, err := a.ledger.ApplyFill(o.Symbol, o.Side, o.Quantity, price, commission)
	if err != nil {
		return order.Order{}, ordererrors.New(ordererrors.OperationFill, o.ID, err)
	}

	o.Status = order.StatusFilled
	o.FilledPrice = price
	o.FilledQuantity = o.Quantity
	o.Commission = commission
	o.RealizedPnL = realized
	o.ClosedQuantity = closedQuantity(before, o.Side, o.Quantity)

	a.orders = append(a.orders, o)
	return o, nil
}

// Orders returns a copy of the filled order log
func (a *Accountant) Orders() []order.Order {
	result := make([]order.Order, len(a.orders))
	copy(result, a.orders)
	return result
}

// Reset clears the order log and id sequence and resets the ledger
func (a *Accountant) Reset() {
	a.ledger.Reset()
	a.orders = nil
	a.nextID = 0
}

func (a *Accountant) newOrder(ts time.Time, symbol string, side order.Side, qty, price decimal.Decimal, reason string) order.Order {
	a.nextID++
	return order.Order{
		ID:        fmt.Sprintf("order_%d", a.nextID),
		Timestamp: ts,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Status:    order.StatusPending,
		Reason:    reason,
	}
}

// closedQuantity returns how much of a fill of qty on side reduces pos
func closedQuantity(pos ledger.Position, side order.Side, qty decimal.Decimal) decimal.Decimal {
	reduces := (side == order.SideSell && pos.IsLong()) || (side == order.SideBuy && pos.IsShort())
	if !reduces {
		return decimal.Zero
	}
	return decimal.Min(qty, pos.Quantity.Abs())
}
