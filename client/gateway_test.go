package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhleath/hft-simulator/market"
)

func TestSubmitInsertsOptimistically(t *testing.T) {
	h := newHarness()

	order, err := h.gateway.Submit(market.Buy, dec(t, "100.00"), 3)
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)
	assert.True(t, order.Own)

	view := h.state.Snapshot()
	require.Len(t, view.Buys, 1)
	require.Len(t, view.Own, 1)
	assert.Equal(t, order.ID, view.Buys[0].ID)
	assert.Equal(t, order.ID, view.Own[0].ID)
	assert.True(t, view.Ledger.Cash.Equal(dec(t, "700")), "buy debits cash at submission")

	require.Len(t, h.sender.sent, 1)
	require.NotNil(t, h.sender.sent[0].Order)
	assert.Equal(t, order.ID, h.sender.sent[0].Order.ID)
}

func TestSubmitSellDoesNotDebit(t *testing.T) {
	h := newHarness()

	_, err := h.gateway.Submit(market.Sell, dec(t, "100.00"), 3)
	require.NoError(t, err)

	ledger := h.state.Ledger()
	assert.True(t, ledger.Cash.Equal(dec(t, "1000")))
	assert.EqualValues(t, 10, ledger.Position)
}

func TestSubmitRejectsNonPositiveQuantity(t *testing.T) {
	h := newHarness()

	_, err := h.gateway.Submit(market.Buy, dec(t, "100.00"), 0)
	require.Error(t, err)
	assert.Empty(t, h.sender.sent)
	assert.Zero(t, h.state.Snapshot().Trades)
	assert.Equal(t, 0, len(h.state.Snapshot().Buys))
}

func TestSubmitGeneratesUniqueIDs(t *testing.T) {
	h := newHarness()

	first, err := h.gateway.Submit(market.Buy, dec(t, "99.00"), 1)
	require.NoError(t, err)
	second, err := h.gateway.Submit(market.Buy, dec(t, "99.00"), 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestRequestCancelFlagsAndSends(t *testing.T) {
	h := newHarness()

	order, err := h.gateway.Submit(market.Sell, dec(t, "110.00"), 2)
	require.NoError(t, err)
	require.NoError(t, h.gateway.RequestCancel(order.ID))

	view := h.state.Snapshot()
	require.Len(t, view.Own, 1)
	assert.True(t, view.Own[0].Cancelling)
	require.Len(t, view.Sells, 1)
	assert.True(t, view.Sells[0].Cancelling)
	assert.Len(t, view.Sells, 1, "cancel request must not remove the order")

	require.Len(t, h.sender.sent, 2)
	assert.Equal(t, order.ID, h.sender.sent[1].CancelID)
}

func TestRequestCancelUnknownOrder(t *testing.T) {
	h := newHarness()

	err := h.gateway.RequestCancel("nope")
	require.Error(t, err)
	assert.Empty(t, h.sender.sent)
}
