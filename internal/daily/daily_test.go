package daily

import (
	"strings"
	"testing"
	"time"
)

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2026, time.October, 20, 5, 0, 0, 0, loc)
	if got := DateKey(ts); got != "2026-10-19" {
		t.Fatalf("DateKey = %q, want 2026-10-19", got)
	}
	parsed, err := ParseKey("2026-10-19")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if DateKey(parsed) != "2026-10-19" {
		t.Fatalf("round trip mismatch: %v", parsed)
	}
	if _, err := ParseKey("19/10/2026"); err == nil {
		t.Fatal("expected parse error for bad layout")
	}
}

func TestWordIndexDeterministic(t *testing.T) {
	a := WordIndex("2026-10-19", "salt", 250)
	b := WordIndex("2026-10-19", "salt", 250)
	if a != b {
		t.Fatalf("indices differ: %d vs %d", a, b)
	}
	if a < 0 || a >= 250 {
		t.Fatalf("index %d out of range", a)
	}
	if WordIndex("2026-10-19", "salt", 0) != 0 {
		t.Fatal("empty pool must map to 0")
	}
	long := strings.Repeat("k", 100)
	if i := WordIndex("2026-10-19", long, 7); i < 0 || i >= 7 {
		t.Fatalf("long salt index %d out of range", i)
	}
}

func TestWordIndexVariesByDate(t *testing.T) {
	seen := map[int]bool{}
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		seen[WordIndex(DateKey(start.AddDate(0, 0, i)), "salt", 1000)] = true
	}
	if len(seen) < 20 {
		t.Fatalf("only %d distinct indices over 30 days", len(seen))
	}
}
