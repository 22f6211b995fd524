// internal/game/engine.go
//
// Game engine for a single player's daily game.
// Responsibilities:
//   - Sequence turns: length check → hard mode → validation → scoring.
//   - Track key states for keyboard hinting and the hint budget.
//   - Detect win/loss and fire terminal side effects exactly once
//     (definition lookup, statistics transaction).
//   - Persist a snapshot after every accepted guess (fire-and-forget).
//
// Notes:
//   - At most one SubmitGuess runs at a time; a concurrent call is rejected
//     with ErrBusy, never queued.
//   - Collaborators are injected through Options; any of them may be nil.
//   - Background work runs on goroutines tracked by Wait.

package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/wordmaster/internal/words"
)

// NoDefinition is published when the definition collaborator has nothing.
const NoDefinition = "No definition found."

// DefinitionFailed is published when the definition lookup errors.
const DefinitionFailed = "Could not load definition."

// WordValidator decides whether a normalised guess is an acceptable word.
// It returns nil, ErrNotInWordList or ErrVerificationUnavailable.
type WordValidator interface {
	Validate(ctx context.Context, word string) error
}

// Recorder is the persistence the engine writes through.
type Recorder interface {
	SaveGameState(ctx context.Context, playerID, date string, st State) error
	ApplyGameResult(ctx context.Context, r Result) (Stats, error)
}

// Definer looks up a short definition. An empty string with a nil error
// means no definition exists.
type Definer interface {
	Define(ctx context.Context, word string) (string, error)
}

// Notifier receives engine events. Notify must not block.
type Notifier interface {
	Notify(ev Event)
}

// Options configures an Engine.
type Options struct {
	Solution   string
	PlayerID   string
	Date       string
	HardMode   bool
	MaxGuesses int
	WordLength int
	HintBudget int

	Validator WordValidator
	Recorder  Recorder
	Definer   Definer
	Notifier  Notifier

	// BackgroundTimeout bounds each asynchronous save/lookup. Default 10s.
	BackgroundTimeout time.Duration
	Now               func() time.Time
}

func (o *Options) defaults() {
	if o.MaxGuesses <= 0 {
		o.MaxGuesses = DefaultMaxGuesses
	}
	if o.WordLength <= 0 {
		o.WordLength = DefaultWordLength
	}
	if o.HintBudget < 0 {
		o.HintBudget = 0
	}
	if o.BackgroundTimeout <= 0 {
		o.BackgroundTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// GuessResult is returned for an accepted guess.
type GuessResult struct {
	Guess      string     `json:"guess"`
	Evaluation Evaluation `json:"evaluation"`
	Status     Status     `json:"status"`
	KeyStates  KeyStates  `json:"keyStates"`
	Remaining  int        `json:"remaining"`
}

// Engine is the turn-by-turn state machine for one game.
type Engine struct {
	opts Options

	mu       sync.Mutex
	state    State
	keys     KeyStates
	finished bool // terminal side effects already fired

	pending atomic.Bool

	saveMu   sync.Mutex
	saveSeq  uint64
	lastSave uint64

	wg sync.WaitGroup
}

// New starts a fresh in-progress game. HintBudget 0 in opts means the default.
func New(opts Options) (*Engine, error) {
	if opts.HintBudget == 0 {
		opts.HintBudget = DefaultHintBudget
	}
	opts.defaults()
	sol := words.Normalize(opts.Solution)
	if len(sol) != opts.WordLength || !words.IsAlpha(sol) {
		return nil, ErrInvalidSolution
	}
	opts.Solution = sol
	return &Engine{
		opts: opts,
		state: State{
			Solution:    sol,
			Guesses:     []string{},
			Evaluations: []Evaluation{},
			Status:      StatusInProgress,
			HardMode:    opts.HardMode,
			StartedAt:   opts.Now().UTC(),
		},
		keys: KeyStates{},
	}, nil
}

// Restore rebuilds an engine from a persisted snapshot. Key states are
// re-derived from history and status is recomputed. A snapshot that is
// already terminal does not fire terminal side effects again.
func Restore(opts Options, st State) (*Engine, error) {
	if st.Solution != "" {
		opts.Solution = st.Solution
	}
	opts.HardMode = st.HardMode
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	if len(st.Guesses) != len(st.Evaluations) || len(st.Guesses) > e.opts.MaxGuesses {
		return nil, errors.New("game: corrupt snapshot")
	}
	restored := st.Clone()
	restored.Solution = e.opts.Solution
	// Evaluations are recomputed so a snapshot cannot disagree with the solution.
	for i, g := range restored.Guesses {
		restored.Evaluations[i] = Evaluate(g, restored.Solution)
	}
	restored.Status = statusFor(restored.Guesses, restored.Solution, e.opts.MaxGuesses)
	if restored.StartedAt.IsZero() {
		restored.StartedAt = e.state.StartedAt
	}
	e.state = restored
	e.keys = DeriveKeyStates(restored.Guesses, restored.Evaluations)
	e.finished = restored.Status.Terminal()
	return e, nil
}

func statusFor(guesses []string, solution string, maxGuesses int) Status {
	for _, g := range guesses {
		if g == solution {
			return StatusWon
		}
	}
	if len(guesses) >= maxGuesses {
		return StatusLost
	}
	return StatusInProgress
}

// SubmitGuess validates, scores and appends candidate.
func (e *Engine) SubmitGuess(ctx context.Context, candidate string) (GuessResult, error) {
	if !e.pending.CompareAndSwap(false, true) {
		return GuessResult{}, ErrBusy
	}
	defer e.pending.Store(false)

	guess := words.Normalize(candidate)

	e.mu.Lock()
	if e.state.Status.Terminal() {
		e.mu.Unlock()
		return GuessResult{}, ErrGameOver
	}
	if len([]rune(guess)) != e.opts.WordLength {
		e.mu.Unlock()
		return GuessResult{}, ErrInvalidLength
	}
	if !words.IsAlpha(guess) {
		e.mu.Unlock()
		return GuessResult{}, ErrNotInWordList
	}
	if e.state.HardMode {
		if n := len(e.state.Guesses); n > 0 {
			if err := CheckHardMode(e.state.Guesses[n-1], e.state.Evaluations[n-1], guess); err != nil {
				e.mu.Unlock()
				return GuessResult{}, err
			}
		}
	}
	e.mu.Unlock()

	if e.opts.Validator != nil {
		if err := e.opts.Validator.Validate(ctx, guess); err != nil {
			return GuessResult{}, err
		}
	}

	e.mu.Lock()
	eval := Evaluate(guess, e.state.Solution)
	e.state.Guesses = append(e.state.Guesses, guess)
	e.state.Evaluations = append(e.state.Evaluations, eval)
	e.keys = e.keys.Update(guess, eval)

	switch {
	case guess == e.state.Solution:
		e.state.Status = StatusWon
	case len(e.state.Guesses) >= e.opts.MaxGuesses:
		e.state.Status = StatusLost
	}
	terminal := e.state.Status.Terminal() && !e.finished
	if terminal {
		e.finished = true
		e.state.FinishedAt = e.opts.Now().UTC()
	}
	snap := e.state.Clone()
	res := GuessResult{
		Guess:      guess,
		Evaluation: append(Evaluation(nil), eval...),
		Status:     e.state.Status,
		KeyStates:  e.keys,
		Remaining:  e.opts.MaxGuesses - len(e.state.Guesses),
	}
	e.mu.Unlock()

	e.save(ctx, snap)
	if terminal {
		e.finish(ctx, snap)
	}
	return res, nil
}

// RequestHint reveals the first solution letter that is neither known from
// key states nor already hinted, and spends one unit of the budget. Key
// states are not changed by hints.
func (e *Engine) RequestHint(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.state.Status.Terminal() || e.state.HintsUsed >= e.opts.HintBudget {
		e.mu.Unlock()
		return "", ErrNoHintsAvailable
	}
	letter, ok := lo.Find(strings.Split(e.state.Solution, ""), func(l string) bool {
		return !e.keys.Known(l) && !lo.Contains(e.state.HintLetters, l)
	})
	if !ok {
		e.mu.Unlock()
		return "", ErrNoHintsAvailable
	}
	e.state.HintsUsed++
	e.state.HintLetters = append(e.state.HintLetters, letter)
	snap := e.state.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: EventHint, Letter: letter})
	e.save(ctx, snap)
	return letter, nil
}

// SetHardMode toggles hard mode. Only allowed before the first guess.
func (e *Engine) SetHardMode(ctx context.Context, on bool) error {
	if e.pending.Load() {
		return ErrBusy
	}
	e.mu.Lock()
	if len(e.state.Guesses) > 0 || e.state.Status.Terminal() {
		e.mu.Unlock()
		return ErrModeLocked
	}
	if e.state.HardMode == on {
		e.mu.Unlock()
		return nil
	}
	e.state.HardMode = on
	snap := e.state.Clone()
	e.mu.Unlock()

	e.save(ctx, snap)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// KeyStates returns the current aggregated key states.
func (e *Engine) KeyStates() KeyStates {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys
}

// HintsRemaining returns the unused hint budget.
func (e *Engine) HintsRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return max(0, e.opts.HintBudget-e.state.HintsUsed)
}

// Wait blocks until background saves and lookups have finished.
func (e *Engine) Wait() { e.wg.Wait() }

// save persists snap in the background. Snapshots are sequenced so an older
// one never overwrites a newer one.
func (e *Engine) save(ctx context.Context, snap State) {
	if e.opts.Recorder == nil {
		return
	}
	e.saveMu.Lock()
	e.saveSeq++
	seq := e.saveSeq
	e.saveMu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.saveMu.Lock()
		defer e.saveMu.Unlock()
		if seq < e.lastSave {
			return
		}
		bctx, cancel := e.background(ctx)
		defer cancel()
		if err := e.opts.Recorder.SaveGameState(bctx, e.opts.PlayerID, e.opts.Date, snap); err != nil {
			log.Warn().Err(err).Str("player", e.opts.PlayerID).Str("date", e.opts.Date).
				Str("op", "save_game_state").Msg("persistence failure")
			return
		}
		e.lastSave = seq
	}()
}

// finish fires the terminal side effects for snap.
func (e *Engine) finish(ctx context.Context, snap State) {
	e.notify(Event{Kind: EventFinished, Status: snap.Status, Word: snap.Solution})

	if e.opts.Definer != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			bctx, cancel := e.background(ctx)
			defer cancel()
			def, err := e.opts.Definer.Define(bctx, snap.Solution)
			switch {
			case err != nil:
				log.Warn().Err(err).Str("word", snap.Solution).Msg("definition lookup failed")
				def = DefinitionFailed
			case def == "":
				def = NoDefinition
			}
			e.notify(Event{Kind: EventDefinition, Word: snap.Solution, Definition: def})
		}()
	}

	if e.opts.Recorder != nil {
		r := Result{
			PlayerID:  e.opts.PlayerID,
			Date:      e.opts.Date,
			Won:       snap.Status == StatusWon,
			Guesses:   len(snap.Guesses),
			ElapsedMs: snap.FinishedAt.Sub(snap.StartedAt).Milliseconds(),
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			bctx, cancel := e.background(ctx)
			defer cancel()
			st, err := e.opts.Recorder.ApplyGameResult(bctx, r)
			if err != nil {
				log.Warn().Err(err).Str("player", r.PlayerID).Str("date", r.Date).
					Str("op", "apply_game_result").Msg("persistence failure")
				return
			}
			e.notify(Event{Kind: EventStats, Stats: &st})
		}()
	}
}

func (e *Engine) background(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), e.opts.BackgroundTimeout)
}

func (e *Engine) notify(ev Event) {
	if e.opts.Notifier == nil {
		return
	}
	ev.PlayerID = e.opts.PlayerID
	ev.Date = e.opts.Date
	e.opts.Notifier.Notify(ev)
}
