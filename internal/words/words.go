// internal/words/words.go
//
// Word list management for the game engine.
//
// Responsibilities:
//   - Load the answer pool and valid-guess set from files or the embedded defaults.
//   - Keep sets for O(1) lookups (answers only, answers ∪ guesses).
//   - Normalise raw input into the canonical upper-case word form.
//
// Word Lists:
//   - "answers": candidate daily solutions.
//   - "allowed": valid guesses (always includes answers).
//
// Load behavior:
//   1. If both answersPath and allowedPath are set, read each file.
//   2. If only allowedPath is set, that file serves as both lists.
//   3. Otherwise fall back to the embedded assets.
//
// Constraints:
//   • Words are exactly Length letters A–Z.
//   • Lists are normalised to upper case and de-duplicated.

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/wordmaster/assets"
)

// Length is the fixed word length.
const Length = 5

// ErrEmptyAnswers is returned when no usable answer survives normalisation.
var ErrEmptyAnswers = errors.New("words: answers list is empty")

// List is an immutable answer pool plus valid-guess set.
type List struct {
	answers    []string
	answersSet map[string]struct{}
	allowedSet map[string]struct{}
}

// New builds a List from raw word slices. Invalid entries are dropped and
// every answer is also allowed.
func New(answers, allowed []string) (*List, error) {
	ans := clean(answers)
	if len(ans) == 0 {
		return nil, ErrEmptyAnswers
	}
	l := &List{
		answers:    ans,
		answersSet: toSet(ans),
		allowedSet: toSet(ans),
	}
	for _, w := range clean(allowed) {
		l.allowedSet[w] = struct{}{}
	}
	return l, nil
}

// Load reads word lists from the given files, falling back to the embedded
// defaults when neither path is set.
func Load(answersPath, allowedPath string) (*List, error) {
	switch {
	case answersPath != "" && allowedPath != "":
		ans, err := readWordFile(answersPath)
		if err != nil {
			return nil, err
		}
		allow, err := readWordFile(allowedPath)
		if err != nil {
			return nil, err
		}
		return New(ans, allow)

	case allowedPath != "":
		allow, err := readWordFile(allowedPath)
		if err != nil {
			return nil, err
		}
		return New(allow, allow)

	case answersPath != "":
		ans, err := readWordFile(answersPath)
		if err != nil {
			return nil, err
		}
		allow, err := assets.AllowedList()
		if err != nil {
			return nil, err
		}
		return New(ans, allow)

	default:
		ans, err := assets.AnswersList()
		if err != nil {
			return nil, err
		}
		allow, err := assets.AllowedList()
		if err != nil {
			return nil, err
		}
		return New(ans, allow)
	}
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// Normalize trims and upper-cases raw input. It does not validate.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Valid reports whether w is exactly Length upper-case ASCII letters.
func Valid(w string) bool {
	return len(w) == Length && IsAlpha(w)
}

// IsAlpha reports whether s is all upper-case ASCII letters.
func IsAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func clean(in []string) []string {
	return lo.Uniq(lo.Filter(lo.Map(in, func(s string, _ int) string {
		return Normalize(s)
	}), func(w string, _ int) bool {
		return Valid(w)
	}))
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// Answers returns a copy of the answer pool in load order.
func (l *List) Answers() []string {
	return append([]string(nil), l.answers...)
}

// At returns the answer at index i modulo the pool size.
func (l *List) At(i int) string {
	n := len(l.answers)
	return l.answers[((i%n)+n)%n]
}

// Random returns a cryptographically random answer.
func (l *List) Random() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(l.answers))))
	if err != nil {
		return l.answers[0]
	}
	return l.answers[n.Int64()]
}

// IsAllowed reports whether w is in the valid-guess set.
func (l *List) IsAllowed(w string) bool {
	_, ok := l.allowedSet[Normalize(w)]
	return ok
}

// IsAnswer reports whether w is in the answer pool.
func (l *List) IsAnswer(w string) bool {
	_, ok := l.answersSet[Normalize(w)]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed).
func (l *List) Stats() (answersCount int, allowedCount int) {
	return len(l.answers), len(l.allowedSet)
}
