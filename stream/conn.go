package stream

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/jhleath/hft-simulator/market"
)

// ErrClosed is returned from reads and writes on a closed connection.
var ErrClosed = errors.New("stream: connection closed")

// Conn is a bidirectional message stream: decoded envelopes in, serialized
// objects out. Reconnection is the caller's concern.
type Conn interface {
	ReadEnvelope() (market.Envelope, error)
	WriteJSON(v any) error
	Close() error
}

type wsConn struct {
	c *websocket.Conn
}

// Dial connects a websocket transport to the given URL.
func Dial(url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", url, err)
	}
	return &wsConn{c: c}, nil
}

func (w *wsConn) ReadEnvelope() (market.Envelope, error) {
	var env market.Envelope
	if err := w.c.ReadJSON(&env); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return market.Envelope{}, ErrClosed
		}
		return market.Envelope{}, err
	}
	return env, nil
}

func (w *wsConn) WriteJSON(v any) error {
	return w.c.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.c.Close()
}
