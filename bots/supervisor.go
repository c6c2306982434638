package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/client"
	"github.com/jhleath/hft-simulator/stream"
)

// ConnectFunc opens a fresh stream to the exchange for one bot.
type ConnectFunc func(name string) (stream.Conn, error)

// Supervisor runs a swarm of bots, each behind its own reconciling client,
// and periodically logs their ledgers.
type Supervisor struct {
	connect ConnectFunc
	bots    []Bot
	log     zerolog.Logger

	traders []*client.Client
}

// NewSupervisor builds a supervisor over the given bots.
func NewSupervisor(connect ConnectFunc, log zerolog.Logger, bots ...Bot) *Supervisor {
	return &Supervisor{connect: connect, bots: bots, log: log}
}

// DefaultSwarm assembles the usual mix: n noise traders, one arbitrageur
// around a mean of 100, and one market maker.
func DefaultSwarm(n int) []Bot {
	swarm := make([]Bot, 0, n+2)
	for i := 0; i < n; i++ {
		swarm = append(swarm, NewNoiseBot())
	}
	swarm = append(swarm, NewArbBot(decimal.NewFromInt(100)))
	swarm = append(swarm, NewMakerBot(3*time.Second))
	return swarm
}

// Start connects and launches every bot, then blocks logging ledgers until
// the context is canceled.
func (s *Supervisor) Start(ctx context.Context) error {
	for i, bot := range s.bots {
		bot := bot
		name := fmt.Sprintf("bot-%d", i)
		conn, err := s.connect(name)
		if err != nil {
			return fmt.Errorf("connect %s: %w", name, err)
		}

		trader := client.New(conn, client.RandomPortfolio, s.log.With().Str("bot", name).Logger())
		s.traders = append(s.traders, trader)

		go func() {
			if err := trader.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn().Err(err).Str("bot", name).Msg("bot stream ended")
			}
		}()
		go bot.Start(ctx, trader)
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.logLedgers()
		}
	}
}

func (s *Supervisor) logLedgers() {
	for i, trader := range s.traders {
		ledger := trader.Ledger()
		s.log.Info().Int("bot", i).
			Str("cash", ledger.Cash.StringFixed(2)).
			Int64("position", ledger.Position).
			Str("last_price", trader.LastPrice().String()).
			Msg("ledger")
	}
}
