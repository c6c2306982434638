// Package bots provides automated participants for the simulator. Every bot
// trades through the client package's reconciliation core, the same way an
// interactive participant would.
package bots

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/client"
	"github.com/jhleath/hft-simulator/market"
)

// Bot is a trading agent that can be run under a supervisor.
type Bot interface {
	Start(ctx context.Context, trader Trader)
}

// Trader abstracts the surface bots need from a connected client.
type Trader interface {
	Submit(side market.Side, price decimal.Decimal, quantity int64) (market.Order, error)
	RequestCancel(id string) error
	Snapshot() client.View
	Ledger() client.Ledger
	LastPrice() decimal.Decimal
	History() []market.Trade
	BestBid() (market.Order, bool)
	BestAsk() (market.Order, bool)
}
