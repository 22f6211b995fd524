package words

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewNormalisesAndFilters(t *testing.T) {
	l, err := New([]string{" crane ", "CRANE", "toolong", "ab1de", "spoon"}, []string{"noons", "x"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := l.Answers(); len(got) != 2 || got[0] != "CRANE" || got[1] != "SPOON" {
		t.Fatalf("answers = %v, want [CRANE SPOON]", got)
	}
	for _, w := range []string{"crane", "SPOON", "Noons"} {
		if !l.IsAllowed(w) {
			t.Fatalf("IsAllowed(%q) = false, want true", w)
		}
	}
	if l.IsAnswer("NOONS") {
		t.Fatal("NOONS must not be an answer")
	}
	if a, g := l.Stats(); a != 2 || g != 3 {
		t.Fatalf("stats = (%d, %d), want (2, 3)", a, g)
	}
}

func TestNewRejectsEmptyAnswers(t *testing.T) {
	if _, err := New([]string{"nope"}, nil); err != ErrEmptyAnswers {
		t.Fatalf("err = %v, want ErrEmptyAnswers", err)
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	l, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.IsAnswer("CRANE") {
		t.Fatal("embedded answers should include CRANE")
	}
	if !l.IsAllowed("ADIEU") {
		t.Fatal("embedded allowed list should include ADIEU")
	}
}

func TestLoadAllowedFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed.txt")
	if err := os.WriteFile(path, []byte("apple\nmango\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load("", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a, g := l.Stats(); a != 2 || g != 2 {
		t.Fatalf("stats = (%d, %d), want (2, 2)", a, g)
	}
}

func TestAtWraps(t *testing.T) {
	l, _ := New([]string{"apple", "mango", "peach"}, nil)
	if got := l.At(4); got != "MANGO" {
		t.Fatalf("At(4) = %q, want MANGO", got)
	}
	if got := l.At(-1); got != "PEACH" {
		t.Fatalf("At(-1) = %q, want PEACH", got)
	}
	if !l.IsAnswer(l.Random()) {
		t.Fatal("Random returned a non-answer")
	}
}

func TestLoadAnswersFileKeepsEmbeddedGuesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.txt")
	if err := os.WriteFile(path, []byte("apple\nmango\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a, _ := l.Stats(); a != 2 {
		t.Fatalf("answers = %d, want 2", a)
	}
	if !l.IsAllowed("ADIEU") {
		t.Fatal("embedded guesses should still be allowed")
	}
}
