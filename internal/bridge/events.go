package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lorolabs/loro/internal/engine"
)

const (
	// eventBuffer is each subscriber's queue depth. A subscriber that falls
	// this far behind starts losing frames rather than stalling the pipeline.
	eventBuffer = 64

	// eventWriteTimeout bounds one WebSocket write so a wedged client cannot
	// pin its handler goroutine forever.
	eventWriteTimeout = 5 * time.Second
)

// Event is one frame of the /events stream, JSON-encoded per message.
type Event struct {
	// Type discriminates the frame: "status" for phase transitions, "log"
	// for pipeline audit lines.
	Type string `json:"type"`

	// Phase, Color and Label mirror the engine's display hints. Set on
	// status frames.
	Phase string `json:"phase,omitempty"`
	Color string `json:"color,omitempty"`
	Label string `json:"label,omitempty"`

	// Message is the audit line. Set on log frames.
	Message string `json:"message,omitempty"`

	// TS is the emission time in UTC.
	TS time.Time `json:"ts"`
}

// Compile-time assertion that the hub can stand in for the engine's observer.
var _ engine.Observer = (*hub)(nil)

// hub fans the engine's observer events out to WebSocket subscribers.
//
// Log and Status never block: each subscriber owns a buffered queue and a
// full queue drops the frame. A recording session must keep its countdown
// timing whether or not anyone is watching.
type hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan Event]struct{})}
}

// Log implements [engine.Observer].
func (h *hub) Log(message string) {
	h.broadcast(Event{Type: "log", Message: message, TS: time.Now().UTC()})
}

// Status implements [engine.Observer].
func (h *hub) Status(phase engine.Phase, hints engine.Hints) {
	h.broadcast(Event{
		Type:  "status",
		Phase: string(phase),
		Color: hints.Color,
		Label: hints.Label,
		TS:    time.Now().UTC(),
	})
}

func (h *hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default: // queue full; the subscriber loses this frame
		}
	}
}

// subscribe registers a new event queue. The returned cancel removes it;
// call exactly once when the consumer goes away.
func (h *hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// handleEvents upgrades the request to a WebSocket and streams [Event]
// frames until the client disconnects or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("event stream upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "event stream interrupted")

	events, cancel := s.hub.subscribe()
	defer cancel()

	s.logger.Info("event stream subscriber connected", "remote", r.RemoteAddr)
	defer s.logger.Info("event stream subscriber gone", "remote", r.RemoteAddr)

	// The stream is write-only. CloseRead keeps control frames serviced and
	// cancels the context when the client closes its end.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("event frame marshal failed", "error", err)
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, eventWriteTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}
