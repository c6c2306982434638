package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhleath/hft-simulator/market"
)

func TestBookRemoveByKey(t *testing.T) {
	var b Book
	b.Append(&market.Order{ID: "a"})
	b.Append(&market.Order{ID: "b"})
	b.Append(&market.Order{ID: "c"})

	assert.True(t, b.Remove("b"))
	assert.False(t, b.Remove("b"), "second removal of the same id is a no-op")
	assert.Equal(t, 2, b.Len())
	assert.Nil(t, b.Get("b"))
	assert.NotNil(t, b.Get("a"))
	assert.NotNil(t, b.Get("c"))
}

func TestBookFindFirstMatch(t *testing.T) {
	var b Book
	b.Append(&market.Order{ID: "a", Quantity: 1})
	b.Append(&market.Order{ID: "b", Quantity: 5})
	b.Append(&market.Order{ID: "c", Quantity: 5})

	found := b.Find(func(o *market.Order) bool { return o.Quantity == 5 })
	assert.Equal(t, "b", found.ID)
}

func TestBestBidAndAsk(t *testing.T) {
	s := NewState(fixedPortfolio)
	s.buys.Append(&market.Order{ID: "b1", Side: market.Buy, Price: decimal.NewFromInt(98)})
	s.buys.Append(&market.Order{ID: "b2", Side: market.Buy, Price: decimal.NewFromInt(101)})
	s.sells.Append(&market.Order{ID: "s1", Side: market.Sell, Price: decimal.NewFromInt(105)})
	s.sells.Append(&market.Order{ID: "s2", Side: market.Sell, Price: decimal.NewFromInt(103)})

	bid, ok := s.BestBid()
	assert.True(t, ok)
	assert.Equal(t, "b2", bid.ID)

	ask, ok := s.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, "s2", ask.ID)

	empty := NewState(fixedPortfolio)
	_, ok = empty.BestBid()
	assert.False(t, ok)
}
