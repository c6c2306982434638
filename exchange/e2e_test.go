package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhleath/hft-simulator/client"
	"github.com/jhleath/hft-simulator/market"
)

// Two reconciling clients trade against each other through the exchange and
// their ledgers and book projections converge on the authoritative outcome.
func TestClientsConvergeOverExchange(t *testing.T) {
	ex := New(zerolog.Nop())
	defer ex.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolio := func() client.Ledger {
		return client.Ledger{Cash: decimal.NewFromInt(1000), Position: 10}
	}

	buyer := client.New(ex.Attach("buyer"), portfolio, zerolog.Nop())
	seller := client.New(ex.Attach("seller"), portfolio, zerolog.Nop())
	go func() { _ = buyer.Run(ctx) }()
	go func() { _ = seller.Run(ctx) }()

	_, err := buyer.Submit(market.Buy, decimal.RequireFromString("102.00"), 3)
	require.NoError(t, err)
	_, err = seller.Submit(market.Sell, decimal.RequireFromString("101.00"), 3)
	require.NoError(t, err)

	// Strike is the 101.50 midpoint: the buyer paid 306 up front and gets
	// 1.50 back in price improvement; the seller collects 304.50.
	require.Eventually(t, func() bool {
		ledger := buyer.Ledger()
		return ledger.Position == 13 && ledger.Cash.Equal(decimal.RequireFromString("695.50"))
	}, 2*time.Second, 10*time.Millisecond, "buyer ledger never converged: %+v", buyer.Ledger())

	require.Eventually(t, func() bool {
		return seller.Ledger().Cash.Equal(decimal.RequireFromString("1304.50"))
	}, 2*time.Second, 10*time.Millisecond, "seller ledger never converged: %+v", seller.Ledger())

	require.Eventually(t, func() bool {
		buyerView := buyer.Snapshot()
		sellerView := seller.Snapshot()
		return len(buyerView.Buys) == 0 && len(buyerView.Sells) == 0 && len(buyerView.Own) == 0 &&
			len(sellerView.Buys) == 0 && len(sellerView.Sells) == 0 && len(sellerView.Own) == 0
	}, 2*time.Second, 10*time.Millisecond, "projected books never drained")

	require.True(t, buyer.LastPrice().Equal(decimal.RequireFromString("101.50")))
}

// A cancel round trip: the owner's projection drops the order on the
// explicit confirmation while a bystander only sees the book removal.
func TestCancelRoundTripOverExchange(t *testing.T) {
	ex := New(zerolog.Nop())
	defer ex.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolio := func() client.Ledger {
		return client.Ledger{Cash: decimal.NewFromInt(1000), Position: 10}
	}

	owner := client.New(ex.Attach("owner"), portfolio, zerolog.Nop())
	watcher := client.New(ex.Attach("watcher"), portfolio, zerolog.Nop())
	go func() { _ = owner.Run(ctx) }()
	go func() { _ = watcher.Run(ctx) }()

	order, err := owner.Submit(market.Sell, decimal.RequireFromString("120.00"), 2)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(watcher.Snapshot().Sells) == 1
	}, 2*time.Second, 10*time.Millisecond, "watcher never saw the order")

	require.NoError(t, owner.RequestCancel(order.ID))

	require.Eventually(t, func() bool {
		view := owner.Snapshot()
		return len(view.Sells) == 0 && len(view.Own) == 0
	}, 2*time.Second, 10*time.Millisecond, "owner projection kept the cancelled order")

	require.Eventually(t, func() bool {
		return len(watcher.Snapshot().Sells) == 0
	}, 2*time.Second, 10*time.Millisecond, "watcher projection kept the cancelled order")
}
