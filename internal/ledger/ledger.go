// Package ledger holds cash and per-instrument positions, applies fills and
// computes equity. A Ledger is owned by exactly one backtest run and is not
// safe for concurrent use.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/order"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice is returned for prices that are not strictly positive
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidQuantity is returned for fill quantities that are not strictly positive
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidCommission is returned for negative commissions
	ErrInvalidCommission = errors.New("invalid commission")
	// ErrInvalidSide is returned for sides other than BUY and SELL
	ErrInvalidSide = errors.New("invalid side")
)

// Ledger tracks cash and positions for a single run
type Ledger struct {
	initialCapital decimal.Decimal
	cash           decimal.Decimal
	positions      map[string]*Position
}

// New creates a ledger funded with initialCapital
func New(initialCapital decimal.Decimal) (*Ledger, error) {
	if !initialCapital.IsPositive() {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %s", config.ErrInvalidConfig, initialCapital)
	}
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*Position),
	}, nil
}

// InitialCapital returns the capital the ledger was funded with
func (l *Ledger) InitialCapital() decimal.Decimal {
	return l.initialCapital
}

// Cash returns the current cash balance. It may be negative: the ledger
// executes any fill regardless of available capital.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// GetOrCreatePosition returns the position for symbol, creating a flat one
// on first reference. Positions are never removed.
func (l *Ledger) GetOrCreatePosition(symbol string) *Position {
	pos, ok := l.positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		l.positions[symbol] = pos
	}
	return pos
}

// Position returns a copy of the position for symbol without creating it
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{Symbol: symbol}, false
	}
	return *pos, true
}

// Positions returns a copy of every position sorted by symbol
func (l *Ledger) Positions() []Position {
	result := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		result = append(result, *pos)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// ApplyFill applies a fully filled order to cash and the symbol's position
// and returns the P&L it realized.
//
// Fills that add to a position (or open one from flat) move the weighted
// average price and realize nothing. Fills against the position realize P&L
// on the closed quantity; a fill larger than the holding closes it and opens
// the opposite side with the remainder at the fill price.
func (l *Ledger) ApplyFill(symbol string, side order.Side, qty, price, commission decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidQuantity, qty)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	if commission.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidCommission, commission)
	}

	pos := l.GetOrCreatePosition(symbol)
	notional := qty.Mul(price)
	realized := decimal.Zero

	switch side {
	case order.SideBuy:
		if pos.IsShort() {
			held := pos.Quantity.Abs()
			if qty.LessThanOrEqual(held) {
				realized = qty.Mul(pos.AvgPrice.Sub(price))
				pos.Quantity = pos.Quantity.Add(qty)
			} else {
				realized = held.Mul(pos.AvgPrice.Sub(price))
				pos.Quantity = qty.Sub(held)
				pos.AvgPrice = price
			}
			// cover leg and any new long leg both pay the fill price
			l.cash = l.cash.Add(realized).Sub(notional).Sub(commission)
		} else {
			newQty := pos.Quantity.Add(qty)
			cost := pos.Quantity.Mul(pos.AvgPrice).Add(notional)
			pos.AvgPrice = cost.Div(newQty)
			pos.Quantity = newQty
			l.cash = l.cash.Sub(notional).Sub(commission)
		}

	case order.SideSell:
		if pos.IsLong() {
			held := pos.Quantity
			if qty.LessThanOrEqual(held) {
				realized = qty.Mul(price.Sub(pos.AvgPrice))
				pos.Quantity = pos.Quantity.Sub(qty)
			} else {
				realized = held.Mul(price.Sub(pos.AvgPrice))
				pos.Quantity = held.Sub(qty)
				pos.AvgPrice = price
			}
			// close leg and any new short leg both receive the fill price
			l.cash = l.cash.Add(realized).Add(notional).Sub(commission)
		} else {
			held := pos.Quantity.Abs()
			newHeld := held.Add(qty)
			cost := held.Mul(pos.AvgPrice).Add(notional)
			pos.AvgPrice = cost.Div(newHeld)
			pos.Quantity = newHeld.Neg()
			l.cash = l.cash.Add(notional).Sub(commission)
		}

	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}

	if pos.IsFlat() {
		pos.AvgPrice = price
	}
	pos.RealizedPnL = pos.RealizedPnL.Add(realized)
	pos.UnrealizedPnL = unrealized(pos, price)

	return realized, nil
}

// MarkToMarket recomputes the unrealized P&L of symbol at price.
// Marking twice at the same price yields the same value.
func (l *Ledger) MarkToMarket(symbol string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	pos := l.GetOrCreatePosition(symbol)
	pos.UnrealizedPnL = unrealized(pos, price)
	return nil
}

// TotalEquity returns cash plus the unrealized P&L of every position
func (l *Ledger) TotalEquity() decimal.Decimal {
	equity := l.cash
	for _, pos := range l.positions {
		equity = equity.Add(pos.UnrealizedPnL)
	}
	return equity
}

// Reset restores the ledger to its freshly constructed state
func (l *Ledger) Reset() {
	l.cash = l.initialCapital
	l.positions = make(map[string]*Position)
}

func unrealized(pos *Position, price decimal.Decimal) decimal.Decimal {
	switch {
	case pos.IsLong():
		return pos.Quantity.Mul(price.Sub(pos.AvgPrice))
	case pos.IsShort():
		return pos.Quantity.Abs().Mul(pos.AvgPrice.Sub(price))
	default:
		return decimal.Zero
	}
}
