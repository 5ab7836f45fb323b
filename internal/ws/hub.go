package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	"starforge-server/internal/shared/config"
)

// subscriber is one open warning stream. The mutex serializes writes;
// gorilla connections allow only one concurrent writer.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub fans the recomputed warning list out to every connection watching
// a session. It implements scenario.WarningNotifier.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == config.GlobalConfig.Frontend.URL
			},
		},
	}
}

type warningsMessage struct {
	Type     string             `json:"type"`
	Warnings []scenario.Warning `json:"warnings"`
}

// NotifyWarnings pushes the warning list to every watcher of the
// session. Dead connections are dropped on write failure.
func (h *Hub) NotifyWarnings(sessionID string, warnings []scenario.Warning) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers[sessionID]))
	for s := range h.subscribers[sessionID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	msg := warningsMessage{Type: "warnings", Warnings: warnings}
	for _, s := range subs {
		if err := s.send(msg); err != nil {
			h.logger.Debug("Dropping dead warning subscriber", "session_id", sessionID, "error", err)
			h.remove(sessionID, s)
			s.conn.Close()
		}
	}
}

func (h *Hub) add(sessionID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*subscriber]struct{})
	}
	h.subscribers[sessionID][s] = struct{}{}
}

func (h *Hub) remove(sessionID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[sessionID], s)
	if len(h.subscribers[sessionID]) == 0 {
		delete(h.subscribers, sessionID)
	}
}

// ServeHTTP upgrades the request and streams warning updates until the
// client disconnects. The initial warning list is fetched by the client
// over the REST surface, the stream only carries changes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn}
	h.add(sessionID, sub)
	h.logger.Debug("Warning stream opened", "session_id", sessionID)

	// The read loop exists only to observe the close; clients never send
	// application messages on this stream.
	go func() {
		defer func() {
			h.remove(sessionID, sub)
			conn.Close()
			h.logger.Debug("Warning stream closed", "session_id", sessionID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
