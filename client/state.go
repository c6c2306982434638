package client

import (
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhleath/hft-simulator/market"
)

// Ledger tracks the participant's cash balance and share position. It is
// mutated only by the reconciler and by the gateway's optimistic debit.
type Ledger struct {
	Cash     decimal.Decimal
	Position int64
}

// PortfolioFunc produces the starting ledger for a new session.
type PortfolioFunc func() Ledger

const (
	startingCash   = 2000
	startingShares = 10
	minimumPrice   = 60
	maximumPrice   = 140
)

// RandomPortfolio starts every participant with 2000 in cash less ten shares
// bought at a random historical price between 60 and 140.
func RandomPortfolio() Ledger {
	price := decimal.NewFromFloat(
		rand.Float64()*(maximumPrice-minimumPrice) + minimumPrice,
	).Round(2)
	return Ledger{
		Cash:     decimal.NewFromInt(startingCash).Sub(price.Mul(decimal.NewFromInt(startingShares))),
		Position: startingShares,
	}
}

// State is the session aggregate: the three projected books, the owner's
// ledger, trade history and last traded price. One mutex guards it all; the
// dispatcher applies events one at a time, the mutex covers submissions
// arriving from other goroutines.
type State struct {
	mu sync.Mutex

	buys  Book
	sells Book
	own   Book

	ledger    Ledger
	history   []market.Trade
	lastPrice decimal.Decimal
}

// NewState builds a session seeded by the portfolio function.
func NewState(init PortfolioFunc) *State {
	if init == nil {
		init = RandomPortfolio
	}
	return &State{ledger: init()}
}

// View is a copied snapshot of the session, safe to read without locks.
type View struct {
	Buys      []market.Order
	Sells     []market.Order
	Own       []market.Order
	Ledger    Ledger
	LastPrice decimal.Decimal
	Trades    int
}

// Snapshot copies the current session state.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Buys:      s.buys.Orders(),
		Sells:     s.sells.Orders(),
		Own:       s.own.Orders(),
		Ledger:    s.ledger,
		LastPrice: s.lastPrice,
		Trades:    len(s.history),
	}
}

// Ledger returns the current cash and position.
func (s *State) Ledger() Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger
}

// LastPrice returns the most recent fill price seen on the stream.
func (s *State) LastPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrice
}

// History returns a copy of the executed-trade history.
func (s *State) History() []market.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]market.Trade, len(s.history))
	copy(out, s.history)
	return out
}

// BestBid returns the highest-priced projected buy order.
func (s *State) BestBid() (market.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bestOf(&s.buys, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// BestAsk returns the lowest-priced projected sell order.
func (s *State) BestAsk() (market.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bestOf(&s.sells, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

func bestOf(b *Book, better func(a, b decimal.Decimal) bool) (market.Order, bool) {
	var best *market.Order
	for _, o := range b.orders {
		if best == nil || better(o.Price, best.Price) {
			best = o
		}
	}
	if best == nil {
		return market.Order{}, false
	}
	return *best, true
}

func (s *State) bookFor(side market.Side) *Book {
	if side == market.Sell {
		return &s.sells
	}
	return &s.buys
}
