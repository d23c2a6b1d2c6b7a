// Package engine exposes the synthetic-market simulation behind paper
// trading as a single injectable facade. Hosts construct one Engine, call
// Load once, and drive it through the method surface; there is no hidden
// global instance and every method is always present.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/zappabad/papertrade/internal/ledger"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/internal/store"
)

// Human-readable rejection reasons surfaced to the UI.
const (
	reasonNoQuote          = "No quote for symbol."
	reasonInsufficientCash = "Insufficient cash."
	reasonNoPosition       = "No open position."
	reasonInvalidQuantity  = "Invalid quantity."
)

// TradeResult is the structured outcome of a Buy or Sell. Rejections are
// part of the normal contract, never panics: the caller presents Reason
// and lets the user retry.
type TradeResult struct {
	OK        bool    `json:"ok"`
	Reason    string  `json:"reason,omitempty"`
	FillPrice float64 `json:"fillPrice,omitempty"`
	Fee       float64 `json:"fee,omitempty"`
	OrderID   string  `json:"orderId,omitempty"`

	Err error `json:"-"`
}

func tradeFailure(err error) TradeResult {
	reason := reasonNoQuote
	switch err {
	case ledger.ErrInsufficientCash:
		reason = reasonInsufficientCash
	case ledger.ErrNoPosition:
		reason = reasonNoPosition
	case ledger.ErrInvalidQuantity:
		reason = reasonInvalidQuantity
	}
	return TradeResult{Reason: reason, Err: err}
}

// Portfolio is a copy of the current ledger state for display.
type Portfolio struct {
	Cash         float64           `json:"cash"`
	StartingCash float64           `json:"startingCash"`
	Equity       float64           `json:"equity"`
	Positions    []ledger.Position `json:"positions"`
}

type listenerEntry struct {
	id int
	fn func()
}

// persistPayload is the serialized state captured under the engine lock
// and written out asynchronously.
type persistPayload struct {
	ledgerJSON    string
	watchlistJSON string
}

// Engine owns the instrument universe, the paper ledger, and the
// watchlist. State mutation happens entirely in memory first; persistence
// is best-effort and never blocks or fails a trade.
type Engine struct {
	cfg Config
	log *slog.Logger
	st  store.Store

	mu     sync.Mutex
	uni    *market.Universe
	led    *ledger.Ledger
	watch  []string
	loaded bool

	listenerMu sync.Mutex
	listeners  []listenerEntry
	nextID     int

	persistMu sync.Mutex
}

// New creates an Engine. A nil store falls back to in-memory persistence;
// a nil logger falls back to slog.Default().
func New(cfg Config, st store.Store, log *slog.Logger) *Engine {
	if st == nil {
		st = store.NewMemory()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg: cfg.withDefaults(),
		log: log,
		st:  st,
	}
}

// Load initializes the universe (including warm-up) and restores ledger
// and watchlist state from the store. It is idempotent after the first
// call. Read failures fall back to defaults silently; Load always ends by
// notifying listeners.
func (e *Engine) Load(ctx context.Context) {
	e.mu.Lock()
	if !e.loaded {
		e.uni = market.NewUniverse(e.cfg.Seed, e.cfg.Market)
		e.led = ledger.New(e.cfg.StartingCash)
		e.watch = nil

		if raw, ok := e.readKey(ctx, e.cfg.LedgerKey); ok {
			var st ledger.State
			if err := json.Unmarshal([]byte(raw), &st); err != nil {
				e.log.Warn("discarding malformed ledger state", "error", err)
			} else {
				e.led = ledger.FromState(st)
			}
		}
		if raw, ok := e.readKey(ctx, e.cfg.WatchlistKey); ok {
			var watch []string
			if err := json.Unmarshal([]byte(raw), &watch); err != nil {
				e.log.Warn("discarding malformed watchlist", "error", err)
			} else {
				for _, sym := range watch {
					sym = market.NormalizeSymbol(sym)
					if sym != "" {
						e.uni.AddSymbol(sym)
						e.watch = append(e.watch, sym)
					}
				}
			}
		}

		// restored positions mark against current universe prices
		e.markPositionsLocked()
		e.loaded = true
	}
	e.mu.Unlock()

	e.notify()
}

func (e *Engine) readKey(ctx context.Context, key string) (string, bool) {
	raw, ok, err := e.st.GetItem(ctx, key)
	if err != nil {
		e.log.Warn("persistence read failed, using defaults", "key", key, "error", err)
		return "", false
	}
	return raw, ok
}

// Persist writes ledger and watchlist to the store synchronously. Failures
// are logged and swallowed; in-memory state stays the source of truth.
func (e *Engine) Persist(ctx context.Context) {
	e.mu.Lock()
	payload := e.payloadLocked()
	e.mu.Unlock()

	e.writePayload(ctx, payload)
}

// payloadLocked serializes current state. Callers must hold e.mu.
func (e *Engine) payloadLocked() persistPayload {
	var p persistPayload
	if e.led != nil {
		if raw, err := json.Marshal(e.led.State()); err == nil {
			p.ledgerJSON = string(raw)
		}
	}
	watch := e.watch
	if watch == nil {
		watch = []string{}
	}
	if raw, err := json.Marshal(watch); err == nil {
		p.watchlistJSON = string(raw)
	}
	return p
}

func (e *Engine) writePayload(ctx context.Context, p persistPayload) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if p.ledgerJSON != "" {
		if err := e.st.SetItem(ctx, e.cfg.LedgerKey, p.ledgerJSON); err != nil {
			e.log.Warn("persisting ledger failed", "error", err)
		}
	}
	if p.watchlistJSON != "" {
		if err := e.st.SetItem(ctx, e.cfg.WatchlistKey, p.watchlistJSON); err != nil {
			e.log.Warn("persisting watchlist failed", "error", err)
		}
	}
}

// persistAsync fires a best-effort background write of already-serialized
// state.
func (e *Engine) persistAsync(p persistPayload) {
	go e.writePayload(context.Background(), p)
}

// TickAll advances the simulated clock by days steps and re-marks every
// open position at the new prices.
func (e *Engine) TickAll(days int) {
	if days < 1 {
		days = 1
	}

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return
	}
	e.uni.StepN(days)
	e.markPositionsLocked()
	e.mu.Unlock()

	e.notify()
}

// markPositionsLocked re-marks open positions from current universe
// prices. Callers must hold e.mu.
func (e *Engine) markPositionsLocked() {
	if e.led == nil || e.uni == nil {
		return
	}
	for _, p := range e.led.Positions() {
		if price, ok := e.uni.Price(p.Symbol); ok {
			e.led.Mark(p.Symbol, price)
		}
	}
}

// Snapshot returns the ranked opportunity list for the current universe
// state.
func (e *Engine) Snapshot() []market.Opportunity {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return nil
	}
	return e.uni.Snapshot(e.cfg.SnapshotSize)
}

// Quote returns the current quote for symbol.
func (e *Engine) Quote(symbol string) (market.Quote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return market.Quote{}, false
	}
	return e.uni.QuoteFor(symbol)
}

// Price returns the current price for symbol.
func (e *Engine) Price(symbol string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return 0, false
	}
	return e.uni.Price(symbol)
}

// WorstCaseFill returns the conservative execution estimate for a market
// order. The quantity does not move the estimate; slippage is a fraction
// of the spread.
func (e *Engine) WorstCaseFill(side market.Side, symbol string, _ int64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return 0, false
	}
	return e.uni.WorstCaseFill(side, symbol)
}

// FeeEstimate returns the commission for qty shares.
func (e *Engine) FeeEstimate(qty int64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return 0
	}
	return e.uni.FeeEstimate(qty)
}

// Day returns the simulated day counter.
func (e *Engine) Day() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return 0
	}
	return e.uni.Day()
}

// Session returns the current session phase.
func (e *Engine) Session() market.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uni == nil {
		return market.SessionRegular
	}
	return e.uni.Session()
}

// Buy executes a simulated market buy at the worst-case fill price.
func (e *Engine) Buy(symbol string, qty int64) TradeResult {
	symbol = market.NormalizeSymbol(symbol)
	if qty < 1 {
		qty = 1
	}

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return tradeFailure(ledger.ErrNoQuote)
	}
	fill, ok := e.uni.WorstCaseFill(market.SideBuy, symbol)
	if !ok {
		e.mu.Unlock()
		return tradeFailure(ledger.ErrNoQuote)
	}
	fee := e.uni.FeeEstimate(qty)

	order, err := e.led.Buy(symbol, qty, fill, fee, time.Now())
	if err != nil {
		e.mu.Unlock()
		return tradeFailure(err)
	}
	payload := e.payloadLocked()
	e.mu.Unlock()

	e.notify()
	e.persistAsync(payload)
	return TradeResult{OK: true, FillPrice: fill, Fee: fee, OrderID: order.ID}
}

// Sell executes a simulated market sell at the worst-case fill price. The
// requested quantity is clamped to the held quantity.
func (e *Engine) Sell(symbol string, qty int64) TradeResult {
	symbol = market.NormalizeSymbol(symbol)

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return tradeFailure(ledger.ErrNoQuote)
	}
	pos, ok := e.led.Position(symbol)
	if !ok {
		e.mu.Unlock()
		return tradeFailure(ledger.ErrNoPosition)
	}
	// fee is charged on the clamped quantity, not the requested one
	if qty < 1 {
		qty = 1
	}
	if qty > pos.Qty {
		qty = pos.Qty
	}
	fill, ok := e.uni.WorstCaseFill(market.SideSell, symbol)
	if !ok {
		e.mu.Unlock()
		return tradeFailure(ledger.ErrNoQuote)
	}
	fee := e.uni.FeeEstimate(qty)

	order, err := e.led.Sell(symbol, qty, fill, fee, time.Now())
	if err != nil {
		e.mu.Unlock()
		return tradeFailure(err)
	}
	payload := e.payloadLocked()
	e.mu.Unlock()

	e.notify()
	e.persistAsync(payload)
	return TradeResult{OK: true, FillPrice: fill, Fee: fee, OrderID: order.ID}
}

// ResetPaper replaces the ledger wholesale with a fresh baseline. Invalid
// requests fall back to the configured default; valid ones are clamped to
// the configured floor.
func (e *Engine) ResetPaper(startingCash float64) {
	if math.IsNaN(startingCash) || math.IsInf(startingCash, 0) || startingCash <= 0 {
		startingCash = e.cfg.StartingCash
	}
	if startingCash < e.cfg.MinStartingCash {
		startingCash = e.cfg.MinStartingCash
	}

	e.mu.Lock()
	e.led = ledger.New(startingCash)
	payload := e.payloadLocked()
	e.mu.Unlock()

	e.notify()
	e.persistAsync(payload)
}

// AddToUniverse ensures an instrument exists for symbol, creating one on
// first reference.
func (e *Engine) AddToUniverse(symbol string) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return
	}

	e.mu.Lock()
	if e.uni == nil {
		e.mu.Unlock()
		return
	}
	e.uni.AddSymbol(symbol)
	e.mu.Unlock()

	e.notify()
}

// Portfolio returns a copy of the current ledger state.
func (e *Engine) Portfolio() Portfolio {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.led == nil {
		return Portfolio{Positions: []ledger.Position{}}
	}
	return Portfolio{
		Cash:         e.led.Cash(),
		StartingCash: e.led.StartingCash(),
		Equity:       e.led.Equity(),
		Positions:    e.led.Positions(),
	}
}

// Orders returns a copy of the order log, most recent first.
func (e *Engine) Orders() []ledger.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.led == nil {
		return nil
	}
	return e.led.Orders()
}

// AttachNote attaches a free-text note to an existing order.
func (e *Engine) AttachNote(orderID, note string) bool {
	e.mu.Lock()
	if e.led == nil {
		e.mu.Unlock()
		return false
	}
	ok := e.led.AttachNote(orderID, note)
	var payload persistPayload
	if ok {
		payload = e.payloadLocked()
	}
	e.mu.Unlock()

	if ok {
		e.persistAsync(payload)
	}
	return ok
}

// Watchlist returns a copy of the watched symbols.
func (e *Engine) Watchlist() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.watch...)
}

// AddToWatchlist adds symbol to the watchlist, creating the instrument if
// it is not in the universe yet.
func (e *Engine) AddToWatchlist(symbol string) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return
	}

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return
	}
	for _, w := range e.watch {
		if w == symbol {
			e.mu.Unlock()
			return
		}
	}
	e.uni.AddSymbol(symbol)
	e.watch = append(e.watch, symbol)
	payload := e.payloadLocked()
	e.mu.Unlock()

	e.notify()
	e.persistAsync(payload)
}

// RemoveFromWatchlist removes symbol from the watchlist. The instrument
// stays in the universe.
func (e *Engine) RemoveFromWatchlist(symbol string) {
	symbol = market.NormalizeSymbol(symbol)

	e.mu.Lock()
	removed := false
	for i, w := range e.watch {
		if w == symbol {
			e.watch = append(e.watch[:i], e.watch[i+1:]...)
			removed = true
			break
		}
	}
	var payload persistPayload
	if removed {
		payload = e.payloadLocked()
	}
	e.mu.Unlock()

	if removed {
		e.notify()
		e.persistAsync(payload)
	}
}

// On subscribes to state-change notifications. Listeners run synchronously
// in subscription order after every state-changing operation. The returned
// function removes the subscription.
func (e *Engine) On(fn func()) func() {
	e.listenerMu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listenerEntry{id: id, fn: fn})
	e.listenerMu.Unlock()

	return func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// notify invokes every listener, isolating panics so one bad observer
// cannot break another.
func (e *Engine) notify() {
	e.listenerMu.Lock()
	ls := append([]listenerEntry(nil), e.listeners...)
	e.listenerMu.Unlock()

	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Warn("listener panicked", "panic", r)
				}
			}()
			l.fn()
		}()
	}
}
