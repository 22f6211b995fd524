// internal/httpserver/server.go
//
// HTTP shell around the game engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Player identity on every game route (anonymous JWT, see identity.go).
//   - Daily endpoints mounted under /daily (routes_daily.go).
//   - Player statistics at /stats/me and the notification stream at /events.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Engine errors are mapped to status codes in writeEngineError.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordmaster/internal/config"
	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/store"
	"github.com/robalobadob/wordmaster/internal/words"
)

// Deps are the collaborators the shell wires into each engine.
// Validator and Definer may be nil.
type Deps struct {
	Config    config.Config
	Store     store.Store
	List      *words.List
	Validator game.WordValidator
	Definer   game.Definer
	Now       func() time.Time
}

// Server bundles the router, the notification hub and the daily sessions.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	store store.Store
	list  *words.List
	hub   *Hub
	ids   *identity
	daily *dailyServer
	now   func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Server{
		r:     chi.NewRouter(),
		cfg:   d.Config,
		store: d.Store,
		list:  d.List,
		hub:   NewHub(),
		ids:   newIdentity(d.Config, d.Now),
		now:   d.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(jsonContentType)             // default JSON responses
	s.r.Use(cors(d.Config.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "wordmaster",
			"endpoints": []string{
				"/health", "POST /daily/new", "POST /daily/guess", "POST /daily/hint",
				"POST /daily/mode", "GET /daily/leaderboard", "GET /stats/me", "GET /events",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := s.list.Stats()
		writeJSON(w, http.StatusOK, map[string]int{"answers": a, "allowed": g})
	})

	// Request-scoped routes get a timeout; the websocket stream must not.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(s.withPlayer)
		s.daily = s.mountDaily(r, d)
		r.Get("/stats/me", s.handleStats)
	})
	s.r.With(s.withPlayer).Get("/events", s.handleEvents)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Hub exposes the notification hub.
func (s *Server) Hub() *Hub { return s.hub }

// Wait blocks until every live engine has finished its background work.
func (s *Server) Wait() { s.daily.wait() }

// handleStats returns the caller's cumulative statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := playerFrom(r.Context())
	st, err := s.store.Statistics(r.Context(), uid)
	if err != nil {
		log.Error().Err(err).Str("player", uid).Msg("read statistics")
		writeError(w, http.StatusInternalServerError, "server_error", "could not load statistics")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", playerTokenHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ responses ----------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP.
func writeEngineError(w http.ResponseWriter, err error) {
	var hm *game.HardModeError
	switch {
	case errors.As(err, &hm):
		writeError(w, http.StatusUnprocessableEntity, "hard_mode", hm.Error())
	case errors.Is(err, game.ErrInvalidLength):
		writeError(w, http.StatusBadRequest, "invalid_length", err.Error())
	case errors.Is(err, game.ErrNotInWordList):
		writeError(w, http.StatusUnprocessableEntity, "not_in_word_list", err.Error())
	case errors.Is(err, game.ErrVerificationUnavailable):
		writeError(w, http.StatusServiceUnavailable, "verification_unavailable", game.ErrVerificationUnavailable.Error())
	case errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusConflict, "game_over", err.Error())
	case errors.Is(err, game.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "busy", err.Error())
	case errors.Is(err, game.ErrNoHintsAvailable):
		writeError(w, http.StatusConflict, "no_hints", err.Error())
	case errors.Is(err, game.ErrModeLocked):
		writeError(w, http.StatusConflict, "mode_locked", err.Error())
	default:
		log.Error().Err(err).Msg("unexpected engine error")
		writeError(w, http.StatusInternalServerError, "server_error", "something went wrong")
	}
}

// decodeBody tolerates an empty body; anything else must be valid JSON.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
