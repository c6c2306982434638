package bots

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
)

// ArbBot believes the security has a fair value and lifts anything quoted on
// the wrong side of it: asks below the mean get bought, bids above it get
// sold into. After its orders fill it works inventory back toward base.
type ArbBot struct {
	Mean         decimal.Decimal
	Interval     time.Duration
	BasePosition int64
}

func NewArbBot(mean decimal.Decimal) *ArbBot {
	return &ArbBot{
		Mean:         mean,
		Interval:     150 * time.Millisecond,
		BasePosition: 10,
	}
}

func (b *ArbBot) Start(ctx context.Context, trader Trader) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.evaluate(trader)
		}
	}
}

func (b *ArbBot) evaluate(trader Trader) {
	view := trader.Snapshot()
	if len(view.Own) > 0 {
		// Wait out our resting orders before pressing further.
		return
	}

	if ask, ok := trader.BestAsk(); ok && !ask.Own && ask.Price.LessThan(b.Mean) {
		if view.Ledger.Cash.GreaterThanOrEqual(ask.Price.Mul(decimal.NewFromInt(ask.Quantity))) {
			_, _ = trader.Submit(market.Buy, ask.Price, ask.Quantity)
			return
		}
	}
	if bid, ok := trader.BestBid(); ok && !bid.Own && bid.Price.GreaterThan(b.Mean) {
		if view.Ledger.Position >= bid.Quantity {
			_, _ = trader.Submit(market.Sell, bid.Price, bid.Quantity)
			return
		}
	}

	// Inventory drifted: resell above the mean or rebuy below it.
	switch {
	case view.Ledger.Position > b.BasePosition:
		ask := b.reofferPrice(trader)
		if ask.GreaterThan(b.Mean) {
			_, _ = trader.Submit(market.Sell, ask, view.Ledger.Position-b.BasePosition)
		}
	case view.Ledger.Position < b.BasePosition:
		bid := b.rebidPrice(trader)
		cost := bid.Mul(decimal.NewFromInt(b.BasePosition - view.Ledger.Position))
		if bid.LessThan(b.Mean) && view.Ledger.Cash.GreaterThanOrEqual(cost) {
			_, _ = trader.Submit(market.Buy, bid, b.BasePosition-view.Ledger.Position)
		}
	}
}

func (b *ArbBot) reofferPrice(trader Trader) decimal.Decimal {
	if ask, ok := trader.BestAsk(); ok {
		return ask.Price.Sub(decimal.NewFromInt(1))
	}
	return decimal.NewFromFloat(100.01)
}

func (b *ArbBot) rebidPrice(trader Trader) decimal.Decimal {
	if bid, ok := trader.BestBid(); ok {
		return bid.Price.Add(decimal.NewFromInt(1))
	}
	return decimal.NewFromFloat(99.99)
}
