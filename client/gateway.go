package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
	"github.com/jhleath/hft-simulator/stream"
)

// Gateway submits orders and cancel requests on behalf of the participant.
// Submissions are optimistic: the local books and ledger are mutated before
// the exchange confirms anything, and the reconciler later suppresses the
// server's echo of the same order.
type Gateway struct {
	state *State
	send  stream.Sender
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

// NewGateway builds a gateway over the session and outbound channel.
func NewGateway(state *State, send stream.Sender, log zerolog.Logger) *Gateway {
	return &Gateway{
		state: state,
		send:  send,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Submit places a limit order: it inserts independent copies into the side
// book and the own-orders list, debits cash for buys, and forwards the order
// to the exchange. The returned order carries the generated id.
func (g *Gateway) Submit(side market.Side, price decimal.Decimal, quantity int64) (market.Order, error) {
	if quantity <= 0 {
		return market.Order{}, errors.New("order quantity must be positive")
	}

	order := market.Order{
		ID:        g.newID(),
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: g.now(),
		Own:       true,
	}

	s := g.state
	s.mu.Lock()
	bookCopy := order
	ownCopy := order
	s.bookFor(side).Append(&bookCopy)
	s.own.Append(&ownCopy)
	if side == market.Buy {
		cost := price.Mul(decimal.NewFromInt(quantity))
		s.ledger.Cash = s.ledger.Cash.Sub(cost)
	}
	s.mu.Unlock()

	if err := g.send.Send(market.ClientMessage{Order: &order}); err != nil {
		return order, fmt.Errorf("submit order %s: %w", order.ID, err)
	}
	g.log.Debug().Str("id", order.ID).Str("side", string(side)).
		Str("price", price.String()).Int64("quantity", quantity).Msg("order submitted")
	return order, nil
}

// RequestCancel asks the exchange to pull one of our orders. The order stays
// on the books, flagged as cancelling, until the exchange answers; there is
// no deadline and no retry.
func (g *Gateway) RequestCancel(id string) error {
	s := g.state
	s.mu.Lock()
	o := s.own.Get(id)
	if o == nil {
		s.mu.Unlock()
		return fmt.Errorf("cancel %s: not one of our orders", id)
	}
	o.Cancelling = true
	if rested := s.bookFor(o.Side).Get(id); rested != nil {
		rested.Cancelling = true
	}
	s.mu.Unlock()

	if err := g.send.Send(market.ClientMessage{CancelID: id}); err != nil {
		return fmt.Errorf("cancel %s: %w", id, err)
	}
	return nil
}
