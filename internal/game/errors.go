package game

import (
	"errors"
	"fmt"
)

// Guess rejections. None of them change game state.
var (
	ErrInvalidLength           = errors.New("not enough letters")
	ErrNotInWordList           = errors.New("not in word list")
	ErrVerificationUnavailable = errors.New("could not verify word")
	ErrHardModeViolation       = errors.New("hard mode violation")
	ErrGameOver                = errors.New("game finished")
	ErrBusy                    = errors.New("guess already being checked")
)

// Other engine errors.
var (
	ErrNoHintsAvailable = errors.New("no hints available")
	ErrModeLocked       = errors.New("cannot change mode mid-game")
	ErrInvalidSolution  = errors.New("invalid solution")
)

// HardModeError names the constraint a guess failed to honour.
// Position is 1-based for a misplaced Correct letter and 0 when the letter
// only had to appear somewhere.
type HardModeError struct {
	Letter   string
	Position int
}

func (e *HardModeError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("letter %s must be in position %d", e.Letter, e.Position)
	}
	return fmt.Sprintf("guess must contain %s", e.Letter)
}

func (e *HardModeError) Unwrap() error { return ErrHardModeViolation }
