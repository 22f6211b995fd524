package game

import "strings"

// CheckHardMode verifies candidate against the previous guess: every Correct
// position must be kept and every Present letter must be reused somewhere.
// It returns nil when there is no previous guess.
func CheckHardMode(prevGuess string, prevEval Evaluation, candidate string) error {
	for i := 0; i < len(prevEval) && i < len(prevGuess); i++ {
		if prevEval[i] != Correct {
			continue
		}
		if i >= len(candidate) || candidate[i] != prevGuess[i] {
			return &HardModeError{Letter: prevGuess[i : i+1], Position: i + 1}
		}
	}
	for i := 0; i < len(prevEval) && i < len(prevGuess); i++ {
		if prevEval[i] != Present {
			continue
		}
		l := prevGuess[i : i+1]
		if !strings.Contains(candidate, l) {
			return &HardModeError{Letter: l}
		}
	}
	return nil
}
