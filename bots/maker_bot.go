package bots

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
)

// MakerBot watches for a quiet market and quotes both sides to narrow the
// spread, pairing a one-lot bid and ask at the same price.
type MakerBot struct {
	Timeout  time.Duration
	Interval time.Duration
}

func NewMakerBot(timeout time.Duration) *MakerBot {
	return &MakerBot{
		Timeout:  timeout,
		Interval: 500 * time.Millisecond,
	}
}

func (m *MakerBot) Start(ctx context.Context, trader Trader) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	lastTrades := trader.Snapshot().Trades
	quietSince := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trades := trader.Snapshot().Trades
			if trades != lastTrades {
				lastTrades = trades
				quietSince = time.Now()
				continue
			}
			if time.Since(quietSince) < m.Timeout {
				continue
			}
			if m.makeMarket(trader) {
				quietSince = time.Now()
			}
		}
	}
}

// makeMarket quotes a crossing pair where the book allows it, seeding a
// trade at the quoted price.
func (m *MakerBot) makeMarket(trader Trader) bool {
	one := decimal.NewFromInt(1)
	bid, hasBid := trader.BestBid()
	ask, hasAsk := trader.BestAsk()

	var quote decimal.Decimal
	switch {
	case !hasBid && !hasAsk:
		return false
	case !hasBid && ask.Price.GreaterThan(decimal.NewFromInt(101)):
		quote = ask.Price.Sub(one)
	case hasBid && hasAsk && bid.Price.Add(one).LessThan(ask.Price):
		quote = bid.Price.Add(one)
	case hasBid && !hasAsk && bid.Price.LessThan(decimal.NewFromInt(99)):
		quote = bid.Price.Add(one)
	default:
		return false
	}

	if _, err := trader.Submit(market.Sell, quote, 1); err != nil {
		return false
	}
	if _, err := trader.Submit(market.Buy, quote, 1); err != nil {
		return false
	}
	return true
}
