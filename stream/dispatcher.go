package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhleath/hft-simulator/market"
)

// Handler consumes the raw payload of one event. Handlers for a single
// message always run to completion before the next message is read.
type Handler func(payload json.RawMessage)

// Sender is the outbound half of the channel, as seen by the submission path.
type Sender interface {
	Send(msg any) error
}

// Dispatcher routes decoded envelopes to handlers registered per event type
// and forwards outbound messages to the underlying connection. Multiple
// handlers may share a type; they run in registration order.
type Dispatcher struct {
	conn Conn
	log  zerolog.Logger

	mu       sync.Mutex
	handlers map[string][]Handler
}

// NewDispatcher wraps a connection. The connection may be nil when the
// dispatcher is only used for direct Dispatch calls.
func NewDispatcher(conn Conn, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		conn:     conn,
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

// Register appends a handler for an event type.
func (d *Dispatcher) Register(eventType string, h Handler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
	d.mu.Unlock()
}

// Send serializes a message to the server.
func (d *Dispatcher) Send(msg any) error {
	if d.conn == nil {
		return errors.New("stream: dispatcher has no connection")
	}
	if err := d.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("stream: send: %w", err)
	}
	return nil
}

// Run reads envelopes until the context is canceled or the connection fails.
// Delivery is strictly one message at a time. Cancellation closes the
// connection so the blocked read returns promptly.
func (d *Dispatcher) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = d.conn.Close()
		case <-done:
		}
	}()

	for {
		env, err := d.conn.ReadEnvelope()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return fmt.Errorf("stream: read: %w", err)
		}
		d.Dispatch(env)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Dispatch delivers one envelope to every registered handler for its type.
// A handler panic is logged and swallowed so siblings still run; an unknown
// type is logged and dropped.
func (d *Dispatcher) Dispatch(env market.Envelope) {
	d.mu.Lock()
	handlers := d.handlers[env.Type]
	d.mu.Unlock()

	if len(handlers) == 0 {
		d.log.Debug().Str("type", env.Type).Msg("message delivered has no handler")
		return
	}

	for _, h := range handlers {
		d.invoke(env, h)
	}
}

func (d *Dispatcher) invoke(env market.Envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("type", env.Type).Interface("panic", r).Msg("event handler fault")
		}
	}()
	h(env.Payload)
}
