// Package client implements the participant side of the simulator: a locally
// consistent projection of the exchange's order book, the owner's ledger,
// and the optimistic submission path. The exchange remains the single source
// of truth; this package only reconciles its event stream.
package client

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
	"github.com/jhleath/hft-simulator/stream"
)

// Client ties a session's state, reconciler and gateway to one connection.
type Client struct {
	state      *State
	gateway    *Gateway
	dispatcher *stream.Dispatcher
}

// New wires up a client over an established connection. Run must be called
// for events to flow.
func New(conn stream.Conn, init PortfolioFunc, log zerolog.Logger) *Client {
	state := NewState(init)
	dispatcher := stream.NewDispatcher(conn, log)
	NewReconciler(state, log).Bind(dispatcher)
	return &Client{
		state:      state,
		gateway:    NewGateway(state, dispatcher, log),
		dispatcher: dispatcher,
	}
}

// Run pumps the event stream until the context ends or the stream closes.
func (c *Client) Run(ctx context.Context) error {
	return c.dispatcher.Run(ctx)
}

// Submit places a limit order through the gateway.
func (c *Client) Submit(side market.Side, price decimal.Decimal, quantity int64) (market.Order, error) {
	return c.gateway.Submit(side, price, quantity)
}

// RequestCancel asks the exchange to pull one of our orders.
func (c *Client) RequestCancel(id string) error {
	return c.gateway.RequestCancel(id)
}

// Snapshot copies the current session state.
func (c *Client) Snapshot() View { return c.state.Snapshot() }

// Ledger returns the current cash and position.
func (c *Client) Ledger() Ledger { return c.state.Ledger() }

// LastPrice returns the most recent traded price.
func (c *Client) LastPrice() decimal.Decimal { return c.state.LastPrice() }

// History returns the executed-trade history.
func (c *Client) History() []market.Trade { return c.state.History() }

// BestBid returns the highest projected bid.
func (c *Client) BestBid() (market.Order, bool) { return c.state.BestBid() }

// BestAsk returns the lowest projected ask.
func (c *Client) BestAsk() (market.Order, bool) { return c.state.BestAsk() }
