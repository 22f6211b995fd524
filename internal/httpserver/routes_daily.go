// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily game.
//   - POST /daily/new         → restore or start today's game for the player
//   - POST /daily/guess       → submit a guess
//   - POST /daily/hint        → reveal one letter
//   - POST /daily/mode        → toggle hard mode before the first guess
//   - GET  /daily/leaderboard → top results for today (or ?date=)
//
// One engine per player and date lives in memory while the process runs;
// it is rebuilt from the store on first use, so a restart resumes the game.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/wordmaster/internal/daily"
	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv        *Server
	validator  game.WordValidator
	definer    game.Definer
	hintBudget int

	mu       sync.Mutex
	sessions map[string]*game.Engine // keyed by playerID|date
	loads    singleflight.Group
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router, d Deps) *dailyServer {
	budget := d.Config.HintBudget
	if budget == 0 {
		budget = -1 // engine: negative means none, zero means default
	}
	dd := &dailyServer{
		srv:        s,
		validator:  d.Validator,
		definer:    d.Definer,
		hintBudget: budget,
		sessions:   make(map[string]*game.Engine),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Post("/hint", dd.handleHint)
		r.Post("/mode", dd.handleMode)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
	return dd
}

func (d *dailyServer) today() string { return daily.DateKey(d.srv.now()) }

func (d *dailyServer) wait() {
	d.mu.Lock()
	engines := make([]*game.Engine, 0, len(d.sessions))
	for _, e := range d.sessions {
		engines = append(engines, e)
	}
	d.mu.Unlock()
	for _, e := range engines {
		e.Wait()
	}
}

// engine returns the live engine for (uid, date), restoring it from the store
// or starting a new one. hardMode applies only to a newly started game.
func (d *dailyServer) engine(ctx context.Context, uid, date string, hardMode bool) (*game.Engine, error) {
	key := uid + "|" + date
	d.mu.Lock()
	if e, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		return e, nil
	}
	d.mu.Unlock()

	v, err, _ := d.loads.Do(key, func() (any, error) {
		d.mu.Lock()
		if e, ok := d.sessions[key]; ok {
			d.mu.Unlock()
			return e, nil
		}
		d.mu.Unlock()

		e, err := d.build(ctx, uid, date, hardMode)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		stale := d.evictOtherDays(date)
		d.sessions[key] = e
		d.mu.Unlock()
		for _, old := range stale {
			old.Wait()
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Engine), nil
}

// evictOtherDays drops every engine not playing date and returns them so the
// caller can wait for their pending saves. Caller holds d.mu.
func (d *dailyServer) evictOtherDays(date string) []*game.Engine {
	var stale []*game.Engine
	for k, e := range d.sessions {
		if strings.HasSuffix(k, "|"+date) {
			continue
		}
		stale = append(stale, e)
		delete(d.sessions, k)
	}
	return stale
}

func (d *dailyServer) build(ctx context.Context, uid, date string, hardMode bool) (*game.Engine, error) {
	st := d.srv.store
	solution, err := st.ResolveDailyWord(ctx, date)
	if err != nil {
		return nil, err
	}
	opts := game.Options{
		Solution:   solution,
		PlayerID:   uid,
		Date:       date,
		HardMode:   hardMode,
		HintBudget: d.hintBudget,
		Validator:  d.validator,
		Recorder:   st,
		Definer:    d.definer,
		Notifier:   d.srv.hub,
		Now:        d.srv.now,
	}

	saved, err := st.LoadGameState(ctx, uid, date)
	switch {
	case err == nil:
		e, rerr := game.Restore(opts, *saved)
		if rerr == nil {
			return e, nil
		}
		log.Warn().Err(rerr).Str("player", uid).Str("date", date).Msg("discarding unusable saved game")
	case !errors.Is(err, store.ErrNotFound):
		log.Warn().Err(err).Str("player", uid).Str("date", date).Msg("load game state")
	}
	return game.New(opts)
}

// gameView is the client-facing game state. The solution is only present
// once the game is over.
type gameView struct {
	Date           string            `json:"date"`
	Status         game.Status       `json:"status"`
	Guesses        []string          `json:"guesses"`
	Evaluations    []game.Evaluation `json:"evaluations"`
	KeyStates      game.KeyStates    `json:"keyStates"`
	HardMode       bool              `json:"hardMode"`
	HintsRemaining int               `json:"hintsRemaining"`
	HintLetters    []string          `json:"hintLetters"`
	MaxGuesses     int               `json:"maxGuesses"`
	WordLength     int               `json:"wordLength"`
	Solution       string            `json:"solution,omitempty"`
}

func viewOf(date string, e *game.Engine) gameView {
	st := e.Snapshot()
	v := gameView{
		Date:           date,
		Status:         st.Status,
		Guesses:        st.Guesses,
		Evaluations:    st.Evaluations,
		KeyStates:      e.KeyStates(),
		HardMode:       st.HardMode,
		HintsRemaining: e.HintsRemaining(),
		HintLetters:    st.HintLetters,
		MaxGuesses:     game.DefaultMaxGuesses,
		WordLength:     game.DefaultWordLength,
	}
	if v.HintLetters == nil {
		v.HintLetters = []string{}
	}
	if st.Status.Terminal() {
		v.Solution = st.Solution
	}
	return v
}

// -----------------------------------------------------------------------------
// /daily/new

type newReq struct {
	HardMode bool `json:"hardMode"`
}

// handleNew restores or starts today's game.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	var p newReq
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	uid, date := playerFrom(r.Context()), d.today()
	e, err := d.engine(r.Context(), uid, date, p.HardMode)
	if err != nil {
		log.Error().Err(err).Str("player", uid).Str("date", date).Msg("start daily game")
		writeError(w, http.StatusInternalServerError, "server_error", "could not start today's game")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(date, e))
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessReq struct {
	Word string `json:"word"`
}

type dailyGuessRes struct {
	game.GuessResult
	Solution string `json:"solution,omitempty"`
}

// handleGuess submits one guess to today's engine.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	var p dailyGuessReq
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	uid, date := playerFrom(r.Context()), d.today()
	e, err := d.engine(r.Context(), uid, date, false)
	if err != nil {
		log.Error().Err(err).Str("player", uid).Str("date", date).Msg("load daily game")
		writeError(w, http.StatusInternalServerError, "server_error", "could not load today's game")
		return
	}
	res, err := e.SubmitGuess(r.Context(), p.Word)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := dailyGuessRes{GuessResult: res}
	if res.Status.Terminal() {
		out.Solution = e.Snapshot().Solution
	}
	writeJSON(w, http.StatusOK, out)
}

// -----------------------------------------------------------------------------
// /daily/hint

// handleHint reveals one letter of today's word.
func (d *dailyServer) handleHint(w http.ResponseWriter, r *http.Request) {
	uid, date := playerFrom(r.Context()), d.today()
	e, err := d.engine(r.Context(), uid, date, false)
	if err != nil {
		log.Error().Err(err).Str("player", uid).Str("date", date).Msg("load daily game")
		writeError(w, http.StatusInternalServerError, "server_error", "could not load today's game")
		return
	}
	letter, err := e.RequestHint(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"letter":         letter,
		"hintsRemaining": e.HintsRemaining(),
	})
}

// -----------------------------------------------------------------------------
// /daily/mode

type modeReq struct {
	HardMode bool `json:"hardMode"`
}

// handleMode toggles hard mode; refused once a guess has been made.
func (d *dailyServer) handleMode(w http.ResponseWriter, r *http.Request) {
	var p modeReq
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	uid, date := playerFrom(r.Context()), d.today()
	e, err := d.engine(r.Context(), uid, date, p.HardMode)
	if err != nil {
		log.Error().Err(err).Str("player", uid).Str("date", date).Msg("load daily game")
		writeError(w, http.StatusInternalServerError, "server_error", "could not load today's game")
		return
	}
	if err := e.SetHardMode(r.Context(), p.HardMode); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hardMode": p.HardMode})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []store.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = d.today()
	} else if _, err := daily.ParseKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date", "date must be YYYY-MM-DD")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be 1-100")
			return
		}
		limit = n
	}
	rows, err := d.srv.store.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error", "could not load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
