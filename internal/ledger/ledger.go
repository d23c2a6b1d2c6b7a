// Package ledger implements the simulated cash/position/order accounting
// behind paper trading. The Ledger exclusively owns its Position and Order
// records: accessors hand out copies and every mutation goes through Buy,
// Sell, Mark, or a wholesale Reset.
package ledger

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/zappabad/papertrade/internal/market"
)

// Sentinel errors for trade rejection. All of them are recoverable by
// design: callers surface them as a message and let the user retry.
var (
	ErrNoQuote          = errors.New("no_quote")
	ErrInsufficientCash = errors.New("insufficient_cash")
	ErrNoPosition       = errors.New("no_position")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
)

// cashEpsilon absorbs float rounding when comparing a projected cost
// against available cash.
const cashEpsilon = 1e-6

// Position is an open long holding in one symbol. Quantity is always > 0
// while the position exists; a position that reaches zero is removed.
type Position struct {
	Symbol  string  `json:"symbol"`
	Qty     int64   `json:"qty"`
	AvgCost float64 `json:"avgCost"`
	Last    float64 `json:"last"`
	PnL     float64 `json:"pnl"`
}

// Order is an immutable record of a completed fill. Only the free-text
// note may be attached after the fact.
type Order struct {
	ID     string      `json:"id"`
	Side   market.Side `json:"side"`
	Symbol string      `json:"symbol"`
	Qty    int64       `json:"qty"`
	Price  float64     `json:"price"`
	Fee    float64     `json:"fee"`
	Time   time.Time   `json:"time"`
	Note   string      `json:"note,omitempty"`
}

// State is the serializable form of a Ledger, used by the persistence
// round-trip.
type State struct {
	Cash         float64    `json:"cash"`
	StartingCash float64    `json:"startingCash"`
	Positions    []Position `json:"positions"`
	Orders       []Order    `json:"orders"`
}

// Ledger holds cash, open positions, and the order log. It is not safe for
// concurrent use; the engine facade serializes access.
type Ledger struct {
	cash         float64
	startingCash float64
	positions    []Position
	orders       []Order
}

// New creates a fresh ledger with the given starting cash.
func New(startingCash float64) *Ledger {
	return &Ledger{
		cash:         startingCash,
		startingCash: startingCash,
	}
}

// FromState restores a ledger from persisted state, dropping entries that
// violate the invariants (non-positive quantities, negative cash).
func FromState(st State) *Ledger {
	l := &Ledger{
		cash:         st.Cash,
		startingCash: st.StartingCash,
	}
	if math.IsNaN(l.cash) || l.cash < 0 {
		l.cash = 0
	}
	for _, p := range st.Positions {
		if p.Qty > 0 && p.AvgCost > 0 {
			l.positions = append(l.positions, p)
		}
	}
	l.orders = append(l.orders, st.Orders...)
	return l
}

// State returns a deep copy of the ledger suitable for serialization.
func (l *Ledger) State() State {
	return State{
		Cash:         l.cash,
		StartingCash: l.startingCash,
		Positions:    l.Positions(),
		Orders:       l.Orders(),
	}
}

// Cash returns the available cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// StartingCash returns the baseline the ledger was created with.
func (l *Ledger) StartingCash() float64 { return l.startingCash }

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() []Position {
	out := make([]Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Orders returns a copy of the order log, most recent first.
func (l *Ledger) Orders() []Order {
	out := make([]Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// Position returns a copy of the open position for symbol.
func (l *Ledger) Position(symbol string) (Position, bool) {
	if i := l.indexOf(symbol); i >= 0 {
		return l.positions[i], true
	}
	return Position{}, false
}

// Equity returns cash plus the marked value of all open positions.
func (l *Ledger) Equity() float64 {
	total := l.cash
	for _, p := range l.positions {
		total += float64(p.Qty) * p.Last
	}
	return total
}

func (l *Ledger) indexOf(symbol string) int {
	for i := range l.positions {
		if l.positions[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// Buy debits cash by fill*qty+fee and opens or extends the position for
// symbol, re-averaging the cost basis. The quantity is floored at 1. It
// returns the appended order record.
func (l *Ledger) Buy(symbol string, qty int64, fill, fee float64, now time.Time) (Order, error) {
	if qty < 1 {
		qty = 1
	}
	if !validFill(fill) {
		return Order{}, ErrNoQuote
	}

	cost := fill*float64(qty) + fee
	if cost > l.cash+cashEpsilon {
		return Order{}, ErrInsufficientCash
	}

	l.cash -= cost
	if l.cash < 0 {
		l.cash = 0
	}

	if i := l.indexOf(symbol); i >= 0 {
		p := &l.positions[i]
		totalQty := p.Qty + qty
		p.AvgCost = (p.AvgCost*float64(p.Qty) + fill*float64(qty)) / float64(totalQty)
		p.Qty = totalQty
		p.Last = fill
		p.PnL = (p.Last - p.AvgCost) * float64(p.Qty)
	} else {
		l.positions = append(l.positions, Position{
			Symbol:  symbol,
			Qty:     qty,
			AvgCost: fill,
			Last:    fill,
		})
	}

	return l.appendOrder(market.SideBuy, symbol, qty, fill, fee, now), nil
}

// Sell credits cash with max(0, proceeds-fee) and reduces or closes the
// position for symbol. The requested quantity is clamped to what is held.
func (l *Ledger) Sell(symbol string, qty int64, fill, fee float64, now time.Time) (Order, error) {
	i := l.indexOf(symbol)
	if i < 0 {
		return Order{}, ErrNoPosition
	}

	held := l.positions[i].Qty
	if qty < 1 {
		qty = 1
	}
	if qty > held {
		qty = held
	}
	if qty <= 0 {
		return Order{}, ErrInvalidQuantity
	}
	if !validFill(fill) {
		return Order{}, ErrNoQuote
	}

	proceeds := fill*float64(qty) - fee
	if proceeds < 0 {
		proceeds = 0
	}
	l.cash += proceeds

	p := &l.positions[i]
	p.Qty -= qty
	if p.Qty <= 0 {
		l.positions = append(l.positions[:i], l.positions[i+1:]...)
	} else {
		p.Last = fill
		p.PnL = (p.Last - p.AvgCost) * float64(p.Qty)
	}

	return l.appendOrder(market.SideSell, symbol, qty, fill, fee, now), nil
}

// Mark re-marks the position for symbol at the given price and recomputes
// its unrealized P&L. This is a read-through projection, not an order.
func (l *Ledger) Mark(symbol string, last float64) {
	if i := l.indexOf(symbol); i >= 0 {
		p := &l.positions[i]
		p.Last = last
		p.PnL = (p.Last - p.AvgCost) * float64(p.Qty)
	}
}

// AttachNote attaches a free-text note to an existing order. It reports
// whether the order was found.
func (l *Ledger) AttachNote(orderID, note string) bool {
	for i := range l.orders {
		if l.orders[i].ID == orderID {
			l.orders[i].Note = note
			return true
		}
	}
	return false
}

// appendOrder prepends a fill record so the most recent order is always
// first in the log.
func (l *Ledger) appendOrder(side market.Side, symbol string, qty int64, fill, fee float64, now time.Time) Order {
	o := Order{
		ID:     uuid.NewString(),
		Side:   side,
		Symbol: symbol,
		Qty:    qty,
		Price:  fill,
		Fee:    fee,
		Time:   now,
	}
	l.orders = append([]Order{o}, l.orders...)
	return o
}

func validFill(fill float64) bool {
	return !math.IsNaN(fill) && !math.IsInf(fill, 0) && fill > 0
}
