// internal/game/types.go
//
// Core type definitions for the game engine.
// Defines:
//   - LetterState / Evaluation: per-letter result of a guess.
//   - Status: in_progress → won | lost.
//   - State: persisted snapshot of a single daily game.
//   - Stats / Result: cumulative player statistics and the input that updates them.
//   - Event: notifications published by the engine.

package game

import "time"

// LetterState is the classification of one letter of a guess.
//   - "correct": right letter, right position.
//   - "present": letter is in the solution at another position.
//   - "absent":  letter is not (or no longer) available in the solution.
type LetterState string

const (
	Correct LetterState = "correct"
	Present LetterState = "present"
	Absent  LetterState = "absent"
)

// Evaluation is the per-position result of one guess.
type Evaluation []LetterState

// Solved reports whether every position is Correct.
func (e Evaluation) Solved() bool {
	if len(e) == 0 {
		return false
	}
	for _, s := range e {
		if s != Correct {
			return false
		}
	}
	return true
}

// Status is the lifecycle state of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether no further guesses may be appended.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Defaults used when Options leave a field zero.
const (
	DefaultMaxGuesses = 6
	DefaultWordLength = 5
	DefaultHintBudget = 3
)

// State is the full snapshot of one game. Guesses and Evaluations are parallel.
type State struct {
	Solution    string       `json:"solution"`
	Guesses     []string     `json:"guesses"`
	Evaluations []Evaluation `json:"evaluations"`
	Status      Status       `json:"status"`
	HintsUsed   int          `json:"hintsUsed"`
	HintLetters []string     `json:"hintLetters,omitempty"`
	HardMode    bool         `json:"hardMode"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Guesses = append([]string(nil), s.Guesses...)
	out.HintLetters = append([]string(nil), s.HintLetters...)
	out.Evaluations = make([]Evaluation, len(s.Evaluations))
	for i, e := range s.Evaluations {
		out.Evaluations[i] = append(Evaluation(nil), e...)
	}
	return out
}

// Stats holds a player's cumulative results.
type Stats struct {
	GamesPlayed   int         `json:"gamesPlayed"`
	GamesWon      int         `json:"gamesWon"`
	CurrentStreak int         `json:"currentStreak"`
	MaxStreak     int         `json:"maxStreak"`
	Distribution  map[int]int `json:"guessCountDistribution"`
}

// Clone returns a copy with its own Distribution map.
func (s Stats) Clone() Stats {
	out := s
	out.Distribution = make(map[int]int, len(s.Distribution))
	for k, v := range s.Distribution {
		out.Distribution[k] = v
	}
	return out
}

// Apply folds one completed game into s and returns the new value; s is not
// modified. guesses is the number of guesses including the winning one.
func (s Stats) Apply(won bool, guesses int) Stats {
	out := s.Clone()
	out.GamesPlayed++
	if won {
		out.GamesWon++
		out.CurrentStreak++
		out.MaxStreak = max(out.MaxStreak, out.CurrentStreak)
		out.Distribution[guesses]++
	} else {
		out.CurrentStreak = 0
	}
	return out
}

// Result describes one completed game for the statistics transaction.
type Result struct {
	PlayerID  string `json:"playerId"`
	Date      string `json:"date"`
	Won       bool   `json:"won"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// EventKind names an engine notification.
type EventKind string

const (
	EventHint       EventKind = "hint"
	EventFinished   EventKind = "finished"
	EventDefinition EventKind = "definition"
	EventStats      EventKind = "stats"
)

// Event is published to the Notifier. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind `json:"kind"`
	PlayerID   string    `json:"playerId"`
	Date       string    `json:"date"`
	Status     Status    `json:"status,omitempty"`
	Letter     string    `json:"letter,omitempty"`
	Word       string    `json:"word,omitempty"`
	Definition string    `json:"definition,omitempty"`
	Stats      *Stats    `json:"stats,omitempty"`
}
