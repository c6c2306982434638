package bots

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
)

// NoiseBot submits uninformed random orders on a jittered timer, with a
// fixed per-bot latency between deciding and submitting.
type NoiseBot struct {
	MinLatency time.Duration
	MaxLatency time.Duration

	rand    *rand.Rand
	latency time.Duration
}

func NewNoiseBot() *NoiseBot {
	b := &NoiseBot{
		MinLatency: 6 * time.Millisecond,
		MaxLatency: 30 * time.Millisecond,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	spread := b.MaxLatency - b.MinLatency
	b.latency = b.MinLatency + time.Duration(b.rand.Int63n(int64(spread)))
	return b
}

func (b *NoiseBot) Start(ctx context.Context, trader Trader) {
	timer := time.NewTimer(b.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			b.trade(ctx, trader)
			timer.Reset(b.nextDelay())
		}
	}
}

func (b *NoiseBot) trade(ctx context.Context, trader Trader) {
	ledger := trader.Ledger()

	var quantity int64
	if ledger.Position > 1 {
		quantity = b.rand.Int63n(ledger.Position) + 1
	} else {
		quantity = b.rand.Int63n(10) + 1
	}

	price := decimal.NewFromFloat(b.rand.Float64()*80 + 60).Round(2)

	side := market.Buy
	if b.rand.Intn(2) == 1 {
		side = market.Sell
	}

	// Skip trades the ledger cannot carry.
	if side == market.Buy {
		cost := price.Mul(decimal.NewFromInt(quantity))
		if ledger.Cash.LessThan(cost) {
			return
		}
	} else if ledger.Position < quantity {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(b.latency):
	}
	_, _ = trader.Submit(side, price, quantity)
}

func (b *NoiseBot) nextDelay() time.Duration {
	return time.Duration(b.rand.Int63n(5)+2) * time.Second
}
