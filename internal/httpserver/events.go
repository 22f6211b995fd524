// internal/httpserver/events.go
//
// Engine notifications pushed to the player over a websocket.
// The Hub implements game.Notifier; every open /events connection of a
// player receives that player's events as JSON text frames.
// Delivery is best effort: a subscriber that falls behind loses events
// rather than stalling the engine.

package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordmaster/internal/game"
)

const (
	subscriberBuffer = 16
	writeWait        = 5 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

type subscriber struct {
	ch chan game.Event
}

// Hub fans engine events out to per-player subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Notify implements game.Notifier. It never blocks.
func (h *Hub) Notify(ev game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.PlayerID] {
		select {
		case sub.ch <- ev:
		default:
			log.Debug().Str("player", ev.PlayerID).Str("kind", string(ev.Kind)).Msg("subscriber full, dropping event")
		}
	}
}

// Subscribe registers a channel for playerID's events. The returned func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(playerID string) (<-chan game.Event, func()) {
	sub := &subscriber{ch: make(chan game.Event, subscriberBuffer)}
	h.mu.Lock()
	if h.subs[playerID] == nil {
		h.subs[playerID] = make(map[*subscriber]struct{})
	}
	h.subs[playerID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[playerID], sub)
			if len(h.subs[playerID]) == 0 {
				delete(h.subs, playerID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Subscribers reports how many connections playerID has open.
func (h *Hub) Subscribers(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[playerID])
}

// handleEvents upgrades to a websocket and streams the caller's events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	uid := playerFrom(r.Context())
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == s.cfg.ClientOrigin || o == "http://"+r.Host
		},
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug().Err(err).Str("player", uid).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(uid)
	defer cancel()
	log.Debug().Str("player", uid).Msg("events stream opened")

	// Reader: only control frames are expected; a read error means the
	// client went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Str("player", uid).Msg("events write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
