// Package assets bundles the default word lists shipped with the server.
// They double as the offline fallback pool when no remote store is reachable.
package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed allowed.txt answers.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// AnswersList returns the bundled answer pool (upper-case, unvalidated).
func AnswersList() ([]string, error) {
	return readLines("answers.txt")
}

// AllowedList returns the bundled extra guesses (upper-case, unvalidated).
func AllowedList() ([]string, error) {
	return readLines("allowed.txt")
}
