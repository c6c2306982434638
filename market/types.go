package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order.
type Side string

const (
	// Buy indicates a bid order.
	Buy Side = "buy"
	// Sell indicates an ask order.
	Sell Side = "sell"
)

// ParseSide maps a wire string onto a Side.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(value) {
	case "buy", "bid", "b":
		return Buy, nil
	case "sell", "ask", "s":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %s", value)
	}
}

// Order describes a single resting limit order as projected by a client or
// held by the exchange. Own and Cancelling are local bookkeeping and never
// cross the wire.
type Order struct {
	ID        string          `json:"id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`

	Own        bool `json:"-"`
	Cancelling bool `json:"-"`
}

// Trade is one row of executed-trade history.
type Trade struct {
	Time     time.Time       `json:"time"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}
