package exchange

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server exposes the exchange over HTTP: a websocket event stream plus a
// health endpoint.
type Server struct {
	ex       *Exchange
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer wraps an exchange for network access.
func NewServer(ex *Exchange, log zerolog.Logger) *Server {
	return &Server{
		ex:  ex,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := s.ex.newSession(conn.RemoteAddr().String())

	go func() {
		defer func() { _ = conn.Close() }()
		for {
			select {
			case <-sess.done:
				return
			case env := <-sess.send:
				if err := conn.WriteJSON(env); err != nil {
					s.log.Debug().Err(err).Str("session", sess.name).Msg("websocket write failed")
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("session", sess.name).Msg("websocket read failed")
			}
			s.ex.detach(sess)
			return
		}
		s.ex.route(raw, sess)
	}
}
