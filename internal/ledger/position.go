package ledger

import "github.com/shopspring/decimal"

// Position is the signed holding of one instrument.
// Quantity is positive for long, negative for short and zero when flat.
// AvgPrice is the entry cost basis and carries no meaning while flat.
type Position struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// IsLong reports whether the position holds a positive quantity
func (p Position) IsLong() bool {
	return p.Quantity.IsPositive()
}

// IsShort reports whether the position holds a negative quantity
func (p Position) IsShort() bool {
	return p.Quantity.IsNegative()
}

// IsFlat reports whether the position holds nothing
func (p Position) IsFlat() bool {
	return p.Quantity.IsZero()
}

// ReturnPct returns the move of price against the cost basis, signed so
// that a profitable move is positive for both longs and shorts. It is zero
// when flat.
func (p Position) ReturnPct(price decimal.Decimal) decimal.Decimal {
	if p.IsFlat() || p.AvgPrice.IsZero() {
		return decimal.Zero
	}
	change := price.Sub(p.AvgPrice).Div(p.AvgPrice)
	if p.IsShort() {
		return change.Neg()
	}
	return change
}
