package game

// KeyStates maps an upper-case letter to the state last shown for it.
type KeyStates map[string]LetterState

func rank(s LetterState) int {
	switch s {
	case Correct:
		return 3
	case Present:
		return 2
	case Absent:
		return 1
	}
	return 0
}

// Update returns a new map with guess folded in left to right; k is not
// modified. A Correct letter is never touched again. Any other letter takes
// the state of its latest position, so a trailing Absent duplicate replaces
// an earlier Present.
func (k KeyStates) Update(guess string, evaluation Evaluation) KeyStates {
	out := make(KeyStates, len(k)+len(guess))
	for l, s := range k {
		out[l] = s
	}
	for i := 0; i < len(guess) && i < len(evaluation); i++ {
		l := guess[i : i+1]
		if out[l] == Correct {
			continue
		}
		out[l] = evaluation[i]
	}
	return out
}

// Known reports whether letter is Correct or Present.
func (k KeyStates) Known(letter string) bool {
	return rank(k[letter]) >= rank(Present)
}

// DeriveKeyStates folds the full history from an empty map.
func DeriveKeyStates(guesses []string, evaluations []Evaluation) KeyStates {
	k := KeyStates{}
	for i := 0; i < len(guesses) && i < len(evaluations); i++ {
		k = k.Update(guesses[i], evaluations[i])
	}
	return k
}
