// Package exchange implements the authoritative matching server: a single
// worker loop owns both books, fills crossing orders at the midpoint price,
// and broadcasts every state change to the attached sessions.
package exchange

import (
	"container/heap"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
)

type requestType int

const (
	requestSubmit requestType = iota
	requestCancel
	requestAttach
	requestDetach
	requestRound
	requestStop
)

type request struct {
	typ      requestType
	order    market.Order
	cancelID string
	sess     *session
	start    bool
}

// restingOrder is an order on the server book plus routing metadata.
type restingOrder struct {
	market.Order
	seq   int64
	owner *session
}

// Exchange matches orders for a single symbol. All book access happens on
// the worker goroutine; the public methods only enqueue requests.
type Exchange struct {
	log   zerolog.Logger
	reqCh chan request
	quit  chan struct{}

	sessions map[*session]struct{}
	bids     priceTimeQueue
	asks     priceTimeQueue
	orders   map[string]*bookEntry
	seq      int64
	running  bool
	now      func() time.Time
}

// New builds an exchange and launches its worker loop. The exchange accepts
// orders immediately; rounds can pause and restart it.
func New(log zerolog.Logger) *Exchange {
	ex := &Exchange{
		log:      log,
		reqCh:    make(chan request, 64),
		quit:     make(chan struct{}),
		sessions: make(map[*session]struct{}),
		orders:   make(map[string]*bookEntry),
		running:  true,
		now:      time.Now,
	}
	heap.Init(&ex.bids)
	heap.Init(&ex.asks)
	go ex.run()
	return ex
}

// Stop terminates the worker loop and disconnects every session.
func (e *Exchange) Stop() {
	e.enqueue(request{typ: requestStop})
}

// enqueue hands a request to the worker, or drops it once the worker has
// exited. Callers must never block on a dead loop.
func (e *Exchange) enqueue(req request) {
	select {
	case e.reqCh <- req:
	case <-e.quit:
	}
}

func (e *Exchange) run() {
	defer func() {
		close(e.quit)
		// Sessions whose attach was still queued would otherwise pump forever.
		for {
			select {
			case req := <-e.reqCh:
				if req.typ == requestAttach {
					close(req.sess.done)
				}
			default:
				return
			}
		}
	}()

	for req := range e.reqCh {
		switch req.typ {
		case requestAttach:
			e.sessions[req.sess] = struct{}{}
			e.log.Info().Str("session", req.sess.name).Int("total", len(e.sessions)).Msg("session attached")
		case requestDetach:
			e.processDetach(req.sess)
		case requestSubmit:
			e.processSubmit(req.order, req.sess)
		case requestCancel:
			e.processCancel(req.cancelID, req.sess)
		case requestRound:
			e.processRound(req.start)
		case requestStop:
			for sess := range e.sessions {
				close(sess.done)
			}
			e.sessions = make(map[*session]struct{})
			return
		}
	}
}

// processDetach removes a departing session and disowns its resting orders,
// which stay on the book but can no longer receive a cancel confirmation.
func (e *Exchange) processDetach(sess *session) {
	if _, ok := e.sessions[sess]; !ok {
		return
	}
	delete(e.sessions, sess)
	close(sess.done)
	for _, entry := range e.orders {
		if entry.order.owner == sess {
			entry.order.owner = nil
		}
	}
	e.log.Info().Str("session", sess.name).Int("total", len(e.sessions)).Msg("session detached")
}

func (e *Exchange) processSubmit(order market.Order, sess *session) {
	if !e.running {
		e.log.Debug().Str("id", order.ID).Msg("round not running, order dropped")
		return
	}
	if order.Quantity <= 0 {
		e.log.Warn().Str("id", order.ID).Int64("quantity", order.Quantity).
			Msg("discarded non-positive quantity order")
		return
	}
	if _, exists := e.orders[order.ID]; exists {
		e.log.Warn().Str("id", order.ID).Msg("discarded duplicate order id")
		return
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = e.now()
	}

	e.broadcast(market.EventNewOrder, order)

	e.seq++
	resting := &restingOrder{Order: order, seq: e.seq, owner: sess}
	entry := &bookEntry{order: resting, isBid: order.Side == market.Buy}
	if entry.isBid {
		heap.Push(&e.bids, entry)
	} else {
		heap.Push(&e.asks, entry)
	}
	e.orders[order.ID] = entry

	e.matchOrders()
}

var two = decimal.NewFromInt(2)

// matchOrders crosses the books while the best bid meets the best ask,
// striking each fill at the midpoint rounded to cents.
func (e *Exchange) matchOrders() {
	for {
		bid := e.bids.peek()
		ask := e.asks.peek()
		if bid == nil || ask == nil {
			return
		}
		if bid.order.Price.LessThan(ask.order.Price) {
			return
		}

		strike := bid.order.Price.Add(ask.order.Price).Div(two).Round(2)
		quantity := bid.order.Quantity
		if ask.order.Quantity < quantity {
			quantity = ask.order.Quantity
		}

		bid.order.Quantity -= quantity
		ask.order.Quantity -= quantity

		e.log.Info().Str("buy", bid.order.ID).Str("sell", ask.order.ID).
			Str("price", strike.String()).Int64("quantity", quantity).Msg("filled order")
		e.broadcast(market.EventFilledOrder, market.FillPayload{
			Price:       strike,
			Quantity:    quantity,
			BuyOrderID:  bid.order.ID,
			SellOrderID: ask.order.ID,
		})

		if bid.order.Quantity == 0 {
			heap.Pop(&e.bids)
			delete(e.orders, bid.order.ID)
		}
		if ask.order.Quantity == 0 {
			heap.Pop(&e.asks)
			delete(e.orders, ask.order.ID)
		}
	}
}

func (e *Exchange) processCancel(id string, requester *session) {
	if !e.running {
		return
	}

	entry, ok := e.orders[id]
	if !ok {
		rejected := false
		if requester != nil {
			requester.deliver(e.log, mustEnvelope(e.log, market.EventCancelledOrder,
				market.CancelPayload{ID: id, Cancel: &rejected}))
		}
		return
	}

	confirmed := true
	owner := entry.order.owner
	if owner != nil {
		owner.deliver(e.log, mustEnvelope(e.log, market.EventCancelledOrder,
			market.CancelPayload{ID: id, Cancel: &confirmed}))
	}
	// Everyone else only learns that the order disappeared.
	disappeared := mustEnvelope(e.log, market.EventCancelledOrder, market.CancelPayload{ID: id})
	for sess := range e.sessions {
		if sess != owner {
			sess.deliver(e.log, disappeared)
		}
	}

	if entry.isBid {
		e.bids.remove(entry)
	} else {
		e.asks.remove(entry)
	}
	delete(e.orders, id)
	e.log.Info().Str("id", id).Msg("cancelled order")
}

func (e *Exchange) processRound(start bool) {
	if start {
		e.broadcast(market.EventStartRound, nil)
		e.bids = nil
		e.asks = nil
		heap.Init(&e.bids)
		heap.Init(&e.asks)
		e.orders = make(map[string]*bookEntry)
		e.running = true
		e.log.Info().Msg("round started")
		return
	}
	e.broadcast(market.EventStopRound, nil)
	e.running = false
	e.log.Info().Msg("round stopped")
}

func (e *Exchange) broadcast(eventType string, payload any) {
	env := mustEnvelope(e.log, eventType, payload)
	for sess := range e.sessions {
		sess.deliver(e.log, env)
	}
}

func mustEnvelope(log zerolog.Logger, eventType string, payload any) market.Envelope {
	env, err := market.NewEnvelope(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("failed to encode envelope")
		return market.Envelope{Type: eventType}
	}
	return env
}

// handleClientMessage routes one decoded client frame onto the worker loop.
func (e *Exchange) handleClientMessage(msg market.ClientMessage, sess *session) {
	switch {
	case msg.Order != nil:
		e.enqueue(request{typ: requestSubmit, order: *msg.Order, sess: sess})
	case msg.CancelID != "":
		e.enqueue(request{typ: requestCancel, cancelID: msg.CancelID, sess: sess})
	case msg.StartRound:
		e.enqueue(request{typ: requestRound, start: true})
	case msg.StopRound:
		e.enqueue(request{typ: requestRound, start: false})
	default:
		e.log.Debug().Str("session", sess.name).Msg("ignoring empty client message")
	}
}
