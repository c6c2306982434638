package exchange

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/jhleath/hft-simulator/market"
	"github.com/jhleath/hft-simulator/stream"
)

// session is one attached participant: a named outbound queue plus whatever
// transport pumps it. done is closed by the worker on detach; send is never
// closed, so a deliver that races a departure is a drop, not a panic.
type session struct {
	name string
	send chan market.Envelope
	done chan struct{}
}

// deliver queues an envelope without blocking the worker loop; a slow
// consumer loses the message rather than stalling the book.
func (s *session) deliver(log zerolog.Logger, env market.Envelope) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- env:
	default:
		log.Warn().Str("session", s.name).Str("type", env.Type).Msg("session send buffer full, dropping")
	}
}

func (e *Exchange) newSession(name string) *session {
	sess := &session{
		name: name,
		send: make(chan market.Envelope, 256),
		done: make(chan struct{}),
	}
	select {
	case <-e.quit:
		close(sess.done)
		return sess
	default:
	}
	select {
	case e.reqCh <- request{typ: requestAttach, sess: sess}:
	case <-e.quit:
		close(sess.done)
	}
	return sess
}

func (e *Exchange) detach(sess *session) {
	e.enqueue(request{typ: requestDetach, sess: sess})
}

func (e *Exchange) route(raw []byte, sess *session) {
	var msg market.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		e.log.Warn().Err(err).Str("session", sess.name).Msg("undecodable client message")
		return
	}
	e.handleClientMessage(msg, sess)
}

// Attach connects an in-process participant and returns the client side of
// the pipe. Semantics are identical to a websocket session.
func (e *Exchange) Attach(name string) stream.Conn {
	conn, pipe := stream.NewPipe()
	sess := e.newSession(name)

	go func() {
		for {
			select {
			case <-sess.done:
				pipe.Close()
				return
			case env := <-sess.send:
				if !pipe.Deliver(env) {
					return
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-pipe.Done():
				e.detach(sess)
				return
			case raw := <-pipe.Outbound():
				e.route(raw, sess)
			}
		}
	}()

	return conn
}
