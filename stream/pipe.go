package stream

import (
	"encoding/json"
	"sync"

	"github.com/jhleath/hft-simulator/market"
)

// Pipe is the server end of an in-process connection pair. It lets an
// in-process exchange or a test drive a client without a network transport:
// Deliver pushes envelopes toward the client, Outbound yields the client's
// serialized messages.
type Pipe struct {
	inbound  chan market.Envelope
	outbound chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

type pipeConn struct {
	p *Pipe
}

// NewPipe builds a connected pair: the Conn for the client side and the Pipe
// for whoever plays the server.
func NewPipe() (Conn, *Pipe) {
	p := &Pipe{
		inbound:  make(chan market.Envelope, 64),
		outbound: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
	return &pipeConn{p: p}, p
}

// Deliver queues an envelope for the client side. Returns false once the
// pipe is closed.
func (p *Pipe) Deliver(env market.Envelope) bool {
	select {
	case <-p.closed:
		return false
	case p.inbound <- env:
		return true
	}
}

// Outbound exposes the client's serialized messages.
func (p *Pipe) Outbound() <-chan []byte {
	return p.outbound
}

// Done is closed when either side closes the pipe.
func (p *Pipe) Done() <-chan struct{} {
	return p.closed
}

// Close tears down both directions.
func (p *Pipe) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (c *pipeConn) ReadEnvelope() (market.Envelope, error) {
	select {
	case <-c.p.closed:
		return market.Envelope{}, ErrClosed
	case env := <-c.p.inbound:
		return env, nil
	}
}

func (c *pipeConn) WriteJSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.p.closed:
		return ErrClosed
	case c.p.outbound <- raw:
		return nil
	}
}

func (c *pipeConn) Close() error {
	c.p.Close()
	return nil
}
