package game

import (
	"reflect"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		guess    string
		solution string
		want     Evaluation
	}{
		{"exact match", "CRANE", "CRANE", Evaluation{Correct, Correct, Correct, Correct, Correct}},
		// A sits in the same slot in both words, so the two-pass result is
		// correct there rather than present.
		{"trace vs crane", "TRACE", "CRANE", Evaluation{Absent, Correct, Correct, Present, Correct}},
		{"duplicate o", "NOONS", "SPOON", Evaluation{Present, Present, Correct, Absent, Present}},
		{"extra duplicate in guess", "EERIE", "THEME", Evaluation{Present, Absent, Absent, Absent, Correct}},
		{"no overlap", "BUMPY", "CRANE", Evaluation{Absent, Absent, Absent, Absent, Absent}},
		{"double l", "LLAMA", "HELLO", Evaluation{Present, Present, Absent, Absent, Absent}},
		{"exact before present", "ROBOT", "FLOOR", Evaluation{Present, Present, Absent, Correct, Absent}},
		{"exact matches exhaust letter", "OOOOO", "FLOOR", Evaluation{Absent, Absent, Correct, Correct, Absent}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.guess, tc.solution)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Evaluate(%s, %s) = %v, want %v", tc.guess, tc.solution, got, tc.want)
			}
		})
	}
}

func TestEvaluateNeverOvercounts(t *testing.T) {
	pool := []string{"SPOON", "NOONS", "EERIE", "THEME", "LLAMA", "HELLO", "KNOLL", "ABBEY", "GEESE", "SASSY", "CRANE", "TRACE"}
	for _, sol := range pool {
		for _, g := range pool {
			eval := Evaluate(g, sol)
			marked := map[byte]int{}
			for i, s := range eval {
				if s == Correct || s == Present {
					marked[g[i]]++
				}
			}
			for l, n := range marked {
				if occ := strings.Count(sol, string(l)); n > occ {
					t.Fatalf("Evaluate(%s, %s): %c marked %d times, solution has %d", g, sol, l, n, occ)
				}
			}
			if got := eval.Solved(); got != (g == sol) {
				t.Fatalf("Evaluate(%s, %s).Solved() = %v", g, sol, got)
			}
		}
	}
}

func TestEvaluateLengthMismatch(t *testing.T) {
	got := Evaluate("ABC", "CRANE")
	for _, s := range got {
		if s != Absent {
			t.Fatalf("mismatched length should be all absent, got %v", got)
		}
	}
}

func TestKeyStatesCorrectIsSticky(t *testing.T) {
	k := KeyStates{}
	k = k.Update("CRANE", Evaluate("CRANE", "CHILD"))
	if k["C"] != Correct || k["R"] != Absent {
		t.Fatalf("unexpected states %v", k)
	}
	k2 := k.Update("ABACK", Evaluate("ABACK", "CHILD"))
	if k2["C"] != Correct {
		t.Fatalf("C downgraded to %s", k2["C"])
	}
	if k["B"] != "" {
		t.Fatal("Update mutated the prior map")
	}
}

func TestKeyStatesLatestNonCorrectWins(t *testing.T) {
	k := KeyStates{"E": Absent}.Update("SPEED", Evaluation{Absent, Absent, Present, Absent, Absent})
	if k["E"] != Absent {
		t.Fatalf("trailing absent E in SPEED should win, got %s", k["E"])
	}

	eval := Evaluate("EERIE", "TOWER")
	want := Evaluation{Present, Absent, Present, Absent, Absent}
	if !reflect.DeepEqual(eval, want) {
		t.Fatalf("Evaluate(EERIE, TOWER) = %v, want %v", eval, want)
	}
	if got := (KeyStates{}).Update("EERIE", eval)["E"]; got != Absent {
		t.Fatalf("E after EERIE = %s, want absent", got)
	}

	p := KeyStates{"E": Present}.Update("BEBOP", Evaluation{Absent, Absent, Absent, Absent, Absent})
	if p["E"] != Absent {
		t.Fatalf("present should be overwritten by a later absent, got %s", p["E"])
	}
	c := KeyStates{"E": Correct}.Update("BEBOP", Evaluation{Absent, Absent, Absent, Absent, Absent})
	if c["E"] != Correct {
		t.Fatalf("correct overwritten, got %s", c["E"])
	}
}

func TestDeriveKeyStatesMatchesIncremental(t *testing.T) {
	sol := "SPOON"
	guesses := []string{"NOONS", "CRANE", "SPOON"}
	var evals []Evaluation
	inc := KeyStates{}
	for _, g := range guesses {
		e := Evaluate(g, sol)
		evals = append(evals, e)
		inc = inc.Update(g, e)
	}
	if got := DeriveKeyStates(guesses, evals); !reflect.DeepEqual(got, inc) {
		t.Fatalf("derived %v, incremental %v", got, inc)
	}
}

func TestCheckHardMode(t *testing.T) {
	prev := "TRACE"
	eval := Evaluate(prev, "CRANE") // _ R A c E

	cases := []struct {
		name      string
		candidate string
		letter    string
		position  int
	}{
		{"keeps everything", "CRANE", "", 0},
		{"drops correct R", "CAUSE", "R", 2},
		{"moves correct E", "BRACK", "E", 5},
		{"drops present C", "GRAPE", "C", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckHardMode(prev, eval, tc.candidate)
			if tc.letter == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			hm, ok := err.(*HardModeError)
			if !ok {
				t.Fatalf("err = %v, want *HardModeError", err)
			}
			if hm.Letter != tc.letter || hm.Position != tc.position {
				t.Fatalf("got %s@%d, want %s@%d", hm.Letter, hm.Position, tc.letter, tc.position)
			}
		})
	}
}
