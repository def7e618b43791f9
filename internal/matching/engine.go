// Package matching owns the two price-level indices and the order
// registry, and implements the trade/cancel/modify protocol against
// them. The engine is single-threaded by construction: Handle must only
// ever be called from one goroutine, the same discipline the teacher
// lineage enforced with its ring buffer — here the discipline is carried
// by convention rather than a sequencer, since the unbounded queue
// upstream already serializes callers onto one consumer.
package matching

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rishav/order-matching-engine/internal/book"
	"github.com/rishav/order-matching-engine/internal/order"
	"github.com/rishav/order-matching-engine/internal/registry"
)

// MetricsSink receives observations from the engine without the engine
// importing prometheus directly, keeping the core package free of the
// metrics backend.
type MetricsSink interface {
	ObserveMatchDuration(d time.Duration)
	RecordOrderReceived(side order.Side)
	RecordOrderFilled()
	RecordTrade()
	ObserveOrderPrice(side order.Side, price int64)
}

// noopSink discards every observation; installed when no sink is given.
type noopSink struct{}

func (noopSink) ObserveMatchDuration(time.Duration)  {}
func (noopSink) RecordOrderReceived(order.Side)      {}
func (noopSink) RecordOrderFilled()                  {}
func (noopSink) RecordTrade()                        {}
func (noopSink) ObserveOrderPrice(order.Side, int64) {}

// Engine is the matching core for one instrument. It owns the only two
// Price-Level Indices and the only Order Registry; nothing else writes
// to them.
type Engine struct {
	bids *book.Index
	asks *book.Index
	reg  *registry.Registry
	sink MetricsSink
}

// NewEngine constructs an empty engine. A nil sink installs a no-op one.
func NewEngine(sink MetricsSink) *Engine {
	if sink == nil {
		sink = noopSink{}
	}
	return &Engine{
		bids: book.NewIndex(order.Buy),
		asks: book.NewIndex(order.Sell),
		reg:  registry.New(),
		sink: sink,
	}
}

// Handle is the engine's single public operation: it accepts a validated
// request and returns the ordered list of market-data updates it produced.
func (e *Engine) Handle(req Request) []MarketDataUpdate {
	start := time.Now()
	var updates []MarketDataUpdate

	switch req.Kind {
	case RequestTrade:
		updates = e.handleTrade(req.Order)
	case RequestCancel:
		updates = e.handleCancel(req.CancelKind, req.CancelID)
	case RequestModify:
		updates = e.handleModify(req.Order)
	case RequestSnapshot:
		e.handleSnapshot(req.SnapshotMaxLevels, req.SnapshotReply)
	}

	e.sink.ObserveMatchDuration(time.Since(start))
	return updates
}

// handleTrade inserts and attempts to match an incoming order, starting
// it from its full initial quantity.
func (e *Engine) handleTrade(incoming *order.Order) []MarketDataUpdate {
	return e.submit(incoming, incoming.Initial)
}

// submit runs the trade path for incoming with remaining as its starting
// remaining quantity: duplicate check, matching, and resting any residue.
func (e *Engine) submit(incoming *order.Order, remaining uint64) []MarketDataUpdate {
	if _, exists := e.reg.Get(incoming.ID); exists {
		log.Warn().Uint64("order_id", incoming.ID).Str("reason", "duplicate id").Msg("trade request rejected")
		return nil
	}
	e.sink.RecordOrderReceived(incoming.Side)
	e.sink.ObserveOrderPrice(incoming.Side, incoming.Price)

	incoming.Remaining = remaining
	incoming.VirtualRemaining = remaining

	opposite := e.indexFor(incoming.Side.Opposite())

	var trades []Trade
	if opposite.Crosses(incoming.Price) {
		trades = e.tentativeMatch(incoming, opposite)
	}

	if incoming.Type == order.Normal && incoming.Remaining > 0 {
		e.rest(incoming)
	}

	for range trades {
		e.sink.RecordTrade()
	}
	if incoming.Remaining < remaining {
		e.sink.RecordOrderFilled()
	}

	updates := make([]MarketDataUpdate, len(trades))
	for i, t := range trades {
		updates[i] = tradeUpdate(t)
	}
	return updates
}

// tentativeMatch runs the two-phase tentative matching pass. Phase A
// enumerates candidates against virtual quantities without touching
// committed state; Phase B commits the whole batch only if the aggregate
// fill clears the incoming order's minimum, otherwise every virtual
// quantity touched is rolled back untouched and no trades are emitted.
func (e *Engine) tentativeMatch(incoming *order.Order, opposite *book.Index) []Trade {
	type candidate struct {
		resting *order.Order
		qty     uint64
	}

	var candidates []candidate
	touched := make([]*order.Order, 0, 4)

	opposite.EachLevel(func(level *book.PriceLevel) bool {
		if incoming.VirtualRemaining < 1 {
			return false
		}
		if !e.levelCrosses(incoming, level.Price) {
			return false
		}
		level.Each(func(id uint64) bool {
			if incoming.VirtualRemaining < 1 {
				return false
			}
			resting, ok := e.reg.Get(id)
			if !ok {
				return true
			}
			q := min64(incoming.VirtualRemaining, resting.VirtualRemaining)
			if q < resting.Minimum {
				return true
			}
			incoming.VirtualRemaining -= q
			resting.VirtualRemaining -= q
			touched = append(touched, resting)
			candidates = append(candidates, candidate{resting: resting, qty: q})
			return true
		})
		return true
	})

	filled := incoming.Initial - incoming.VirtualRemaining
	if filled < incoming.Minimum {
		for _, r := range touched {
			r.VirtualRemaining = r.Remaining
		}
		incoming.VirtualRemaining = incoming.Remaining
		return nil
	}

	trades := make([]Trade, 0, len(candidates))
	for _, c := range candidates {
		c.resting.Remaining = c.resting.VirtualRemaining
		if c.resting.Remaining == 0 {
			e.removeResting(c.resting)
		}
		trades = append(trades, e.buildTrade(incoming, c.resting, c.qty))
	}
	incoming.Remaining = incoming.VirtualRemaining
	return trades
}

// buildTrade assigns each TradeInfo its own order's recorded price: the
// bid's price is what the buyer agreed to, the ask's what the seller
// agreed to, and the two may diverge when the aggressor crosses at a
// better price than the resting counterparty required.
func (e *Engine) buildTrade(incoming, resting *order.Order, qty uint64) Trade {
	incomingInfo := TradeInfo{OrderID: incoming.ID, Price: incoming.Price, Quantity: qty}
	restingInfo := TradeInfo{OrderID: resting.ID, Price: resting.Price, Quantity: qty}
	if incoming.Side == order.Buy {
		return Trade{Bid: incomingInfo, Ask: restingInfo}
	}
	return Trade{Bid: restingInfo, Ask: incomingInfo}
}

// levelCrosses reports whether a level at price still crosses against
// incoming. Phase A walks multiple levels and must stop at the first one
// that no longer crosses, rather than relying only on the index-wide
// check made before entering the match.
func (e *Engine) levelCrosses(incoming *order.Order, price int64) bool {
	if incoming.Side == order.Buy {
		return price <= incoming.Price
	}
	return price >= incoming.Price
}

// rest inserts a Normal order with remaining quantity into the registry
// and its side's price level, appended at the tail.
func (e *Engine) rest(o *order.Order) {
	e.reg.Put(o)
	e.indexFor(o.Side).Insert(o.ID, o.Price)
}

// removeResting deletes a fully-filled resting order from both the
// registry and its price level.
func (e *Engine) removeResting(o *order.Order) {
	e.reg.Delete(o.ID)
	e.indexFor(o.Side).Remove(o.ID, o.Price)
}

// handleCancel removes a resting order from the book.
func (e *Engine) handleCancel(kind order.CancelKind, id uint64) []MarketDataUpdate {
	o, ok := e.reg.Get(id)
	if !ok {
		return nil
	}
	e.reg.Delete(id)
	e.indexFor(o.Side).Remove(id, o.Price)
	return []MarketDataUpdate{cancelUpdate(CancelledOrder{Kind: kind, Order: o.Snapshot()})}
}

// handleModify is an atomic cancel of the existing order followed by a
// re-submission through the trade path, carrying forward the existing
// order's remaining quantity and minimum into the new order.
func (e *Engine) handleModify(replacement *order.Order) []MarketDataUpdate {
	existing, ok := e.reg.Get(replacement.ID)
	if !ok {
		log.Warn().Uint64("order_id", replacement.ID).Str("reason", "unknown id").Msg("modify rejected")
		return nil
	}
	if existing.Type != replacement.Type {
		log.Warn().Uint64("order_id", replacement.ID).Str("reason", "type change").Msg("modify rejected")
		return nil
	}
	if existing.Side != replacement.Side {
		log.Warn().Uint64("order_id", replacement.ID).Str("reason", "side change").Msg("modify rejected")
		return nil
	}
	filled := existing.Initial - existing.Remaining
	if replacement.Initial < filled {
		log.Warn().Uint64("order_id", replacement.ID).Str("reason", "shrinks below filled").Msg("modify rejected")
		return nil
	}

	cancelUpdates := e.handleCancel(order.Internal, replacement.ID)

	fresh := order.New(replacement.ID, replacement.Type, replacement.Side, replacement.Price,
		replacement.Initial, existing.Minimum)

	tradeUpdates := e.submit(fresh, existing.Remaining)

	out := make([]MarketDataUpdate, 0, len(cancelUpdates)+len(tradeUpdates))
	out = append(out, cancelUpdates...)
	out = append(out, tradeUpdates...)
	return out
}

func (e *Engine) indexFor(side order.Side) *book.Index {
	if side == order.Buy {
		return e.bids
	}
	return e.asks
}

// BestBid returns the highest resting bid price, if any.
func (e *Engine) BestBid() (int64, bool) {
	lvl := e.bids.Best()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (e *Engine) BestAsk() (int64, bool) {
	lvl := e.asks.Best()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// DepthLevel is one row of a depth snapshot.
type DepthLevel struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Depth returns up to maxLevels price levels per side, best first, as
// (price, aggregate quantity) pairs. A maxLevels of 0 means unlimited.
func (e *Engine) Depth(maxLevels int) (bids, asks []DepthLevel) {
	return e.depthFor(e.bids, maxLevels), e.depthFor(e.asks, maxLevels)
}

// handleSnapshot builds a Snapshot on the engine goroutine and hands it
// back over reply. This is the only path by which book state reaches an
// HTTP handler: the registry and price-level indices are never read from
// any goroutine but this one.
func (e *Engine) handleSnapshot(maxLevels int, reply chan Snapshot) {
	snap := Snapshot{}
	if price, ok := e.BestBid(); ok {
		snap.BestBid = &price
	}
	if price, ok := e.BestAsk(); ok {
		snap.BestAsk = &price
	}
	snap.Bids, snap.Asks = e.Depth(maxLevels)
	reply <- snap
}

func (e *Engine) depthFor(ix *book.Index, maxLevels int) []DepthLevel {
	var out []DepthLevel
	ix.EachLevel(func(level *book.PriceLevel) bool {
		if maxLevels > 0 && len(out) >= maxLevels {
			return false
		}
		var qty uint64
		level.Each(func(id uint64) bool {
			if o, ok := e.reg.Get(id); ok {
				qty += o.Remaining
			}
			return true
		})
		out = append(out, DepthLevel{Price: level.Price, Quantity: qty})
		return true
	})
	return out
}

// WithLogger attaches a pre-configured zerolog.Logger as the package
// default, used by cmd/server during startup wiring.
func WithLogger(l zerolog.Logger) {
	log.Logger = l
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
