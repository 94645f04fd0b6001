package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/ctxlog"
	"github.com/i2mint/rh/internal/engine"
	"github.com/i2mint/rh/internal/metrics"
	"github.com/i2mint/rh/internal/value"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local development server; origin checks would only get in the way
	// of file:// and localhost-port clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one live websocket client.
type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to conn
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// hub tracks live sessions and broadcasts settled value sets to all of
// them after every committed edit.
type hub struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newHub() *hub {
	return &hub{sessions: make(map[string]*session)}
}

func (h *hub) add(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
	metrics.SessionsActive.Set(float64(len(h.sessions)))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
	metrics.SessionsActive.Set(float64(len(h.sessions)))
}

func (h *hub) broadcast(ctx context.Context, values value.Set) {
	logger := ctxlog.FromContext(ctx)

	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	msg := map[string]any{"type": "values", "values": values}
	for _, s := range sessions {
		if err := s.send(msg); err != nil {
			logger.Debug("Dropping unreachable session.", "sessionID", s.id, "error", err)
			h.remove(s.id)
			s.conn.Close()
		}
	}
}

// handleWS upgrades the connection and runs the session's read loop.
// Messages are processed sequentially per connection, and the store mutex
// serializes edits across connections, so propagation never interleaves.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed.", "error", err)
		return
	}

	sess := &session{id: uuid.NewString(), conn: conn}
	s.hub.add(sess)
	logger.Debug("Session opened.", "sessionID", sess.id)

	defer func() {
		s.hub.remove(sess.id)
		conn.Close()
		logger.Debug("Session closed.", "sessionID", sess.id)
	}()

	// Greet the client with the current state.
	if err := sess.send(map[string]any{"type": "values", "values": s.store.Values()}); err != nil {
		return
	}

	for {
		var req editRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Session read failed.", "sessionID", sess.id, "error", err)
			}
			return
		}

		v, err := decodeValue(req.Value)
		if err != nil {
			sess.send(map[string]any{"type": "error", "error": err.Error()})
			continue
		}

		next, err := s.store.Apply(r.Context(), req.Name, v)
		if err != nil {
			var cyc *engine.CyclicError
			if errors.As(err, &cyc) {
				logger.Warn("Edit rejected by cycle detection.",
					"sessionID", sess.id, "variable", cyc.Variable, "origin", cyc.Origin)
			}
			sess.send(map[string]any{"type": "error", "error": err.Error()})
			continue
		}

		s.hub.broadcast(r.Context(), next)
	}
}

// decodeValue turns a raw JSON value into a cty value, keeping numbers
// exact on the way through.
func decodeValue(raw json.RawMessage) (cty.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil {
		return cty.NilVal, err
	}
	return value.FromNative(native)
}
