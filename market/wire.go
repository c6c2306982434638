package market

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Event types carried in the envelope. Anything else is dropped by the
// receiving dispatcher.
const (
	EventNewOrder       = "newOrder"
	EventFilledOrder    = "filledOrder"
	EventCancelledOrder = "cancelledOrder"
	EventStartRound     = "startRound"
	EventStopRound      = "stopRound"
)

// Envelope is the inbound wire frame: a type tag plus an undecoded payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope around a marshalled payload.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Payload: raw}, nil
}

// FillPayload announces a trade between two resting orders.
type FillPayload struct {
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	BuyOrderID  string          `json:"buyOrderId"`
	SellOrderID string          `json:"sellOrderId"`
}

// CancelPayload announces that an order left the book. Cancel is nil when a
// third-party order disappeared, true when the owner's cancel request was
// confirmed, and false when it was rejected.
type CancelPayload struct {
	ID     string `json:"id"`
	Cancel *bool  `json:"cancel,omitempty"`
}

// ClientMessage is the outbound frame a participant sends to the exchange.
// Exactly one field is set per message.
type ClientMessage struct {
	Order      *Order `json:"order,omitempty"`
	CancelID   string `json:"CancelId,omitempty"`
	StartRound bool   `json:"startRound,omitempty"`
	StopRound  bool   `json:"stopRound,omitempty"`
}
