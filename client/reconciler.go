package client

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
	"github.com/jhleath/hft-simulator/stream"
)

// Reconciler ingests book-mutation events from the exchange and keeps the
// session state coherent with the server's view: it is the sole writer of
// the books and the ledger besides the gateway's optimistic inserts.
type Reconciler struct {
	state *State
	log   zerolog.Logger
	now   func() time.Time
}

// NewReconciler builds a reconciler over the given session.
func NewReconciler(state *State, log zerolog.Logger) *Reconciler {
	return &Reconciler{state: state, log: log, now: time.Now}
}

// Bind registers the reconciler's handlers on a dispatcher.
func (r *Reconciler) Bind(d *stream.Dispatcher) {
	d.Register(market.EventNewOrder, r.handleNewOrder)
	d.Register(market.EventFilledOrder, r.handleFilledOrder)
	d.Register(market.EventCancelledOrder, r.handleCancelledOrder)
}

func (r *Reconciler) handleNewOrder(payload json.RawMessage) {
	var order market.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		r.log.Warn().Err(err).Msg("undecodable newOrder payload")
		return
	}

	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	// The server echoes our own submissions back to us; the gateway already
	// inserted them.
	if s.own.Get(order.ID) != nil {
		r.log.Debug().Str("id", order.ID).Msg("discarding own order echo")
		return
	}

	s.bookFor(order.Side).Append(&order)
}

func (r *Reconciler) handleFilledOrder(payload json.RawMessage) {
	var fill market.FillPayload
	if err := json.Unmarshal(payload, &fill); err != nil {
		r.log.Warn().Err(err).Msg("undecodable filledOrder payload")
		return
	}

	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, market.Trade{
		Time:     r.now(),
		Price:    fill.Price,
		Quantity: fill.Quantity,
	})

	// Scan all three collections first and only then drop emptied orders.
	// Removing mid-scan would skip candidates in the same pass.
	type removal struct {
		book *Book
		id   string
	}
	var drained []removal

	if o := s.buys.Get(fill.BuyOrderID); o != nil {
		o.Quantity -= fill.Quantity
		if o.Quantity <= 0 {
			drained = append(drained, removal{&s.buys, o.ID})
		}
	}
	if o := s.sells.Get(fill.SellOrderID); o != nil {
		o.Quantity -= fill.Quantity
		if o.Quantity <= 0 {
			drained = append(drained, removal{&s.sells, o.ID})
		}
	}
	if o := s.own.Find(func(o *market.Order) bool {
		return o.ID == fill.BuyOrderID || o.ID == fill.SellOrderID
	}); o != nil {
		r.settleOwnFill(o, fill)
		o.Quantity -= fill.Quantity
		if o.Quantity <= 0 {
			drained = append(drained, removal{&s.own, o.ID})
		}
	}

	for _, rem := range drained {
		rem.book.Remove(rem.id)
	}

	s.lastPrice = fill.Price
}

// settleOwnFill applies the ledger half of a fill touching one of our own
// orders: a sold lot pays out cash, a bought lot adds to the position and
// refunds any price improvement against our limit.
func (r *Reconciler) settleOwnFill(o *market.Order, fill market.FillPayload) {
	qty := decimal.NewFromInt(fill.Quantity)
	s := r.state
	if o.Side == market.Sell {
		s.ledger.Cash = s.ledger.Cash.Add(fill.Price.Mul(qty))
		return
	}

	s.ledger.Position += fill.Quantity
	if !o.Price.Equal(fill.Price) {
		refund := o.Price.Sub(fill.Price).Mul(qty)
		s.ledger.Cash = s.ledger.Cash.Add(refund)
	}
}

func (r *Reconciler) handleCancelledOrder(payload json.RawMessage) {
	var cancel market.CancelPayload
	if err := json.Unmarshal(payload, &cancel); err != nil {
		r.log.Warn().Err(err).Msg("undecodable cancelledOrder payload")
		return
	}

	s := r.state
	s.mu.Lock()
	defer s.mu.Unlock()

	// Any removal notice clears the order from the public books, whether the
	// order was ours, a rejected cancel, or a third party's disappearing.
	s.buys.Remove(cancel.ID)
	s.sells.Remove(cancel.ID)

	if cancel.Cancel == nil {
		return
	}
	if *cancel.Cancel {
		s.own.Remove(cancel.ID)
		return
	}
	// Cancel was rejected: the order is still live on the server.
	if o := s.own.Get(cancel.ID); o != nil {
		o.Cancelling = false
	}
}
