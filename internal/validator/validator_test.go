package validator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/words"
)

type fakeChecker struct {
	calls  atomic.Int32
	known  map[string]bool
	err    error
	delay  time.Duration
	onCall func()
}

func (c *fakeChecker) CheckWordExists(ctx context.Context, w string) (bool, error) {
	c.calls.Add(1)
	if c.onCall != nil {
		c.onCall()
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if c.err != nil {
		return false, c.err
	}
	return c.known[w], nil
}

type fakeStore struct {
	mu     sync.Mutex
	words  map[string]bool
	hasErr error
}

func (s *fakeStore) HasValidWord(_ context.Context, w string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasErr != nil {
		return false, s.hasErr
	}
	return s.words[w], nil
}

func (s *fakeStore) PutValidWord(_ context.Context, w string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[w] = true
	return nil
}

func testList(t *testing.T) *words.List {
	t.Helper()
	l, err := words.New([]string{"crane", "spoon"}, []string{"adieu"})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLocalListNeedsNoLookup(t *testing.T) {
	c := &fakeChecker{}
	v := New(Options{List: testList(t), Checker: c})
	for _, w := range []string{"crane", "ADIEU"} {
		if err := v.Validate(context.Background(), w); err != nil {
			t.Fatalf("Validate(%q): %v", w, err)
		}
	}
	if c.calls.Load() != 0 {
		t.Fatalf("checker called %d times", c.calls.Load())
	}
}

func TestLiveLookupIsCachedForSession(t *testing.T) {
	c := &fakeChecker{known: map[string]bool{"QUERY": true}}
	st := &fakeStore{words: map[string]bool{}}
	v := New(Options{List: testList(t), Checker: c, Store: st})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := v.Validate(ctx, "query"); err != nil {
			t.Fatalf("Validate #%d: %v", i, err)
		}
	}
	if got := c.calls.Load(); got != 1 {
		t.Fatalf("checker calls = %d, want 1", got)
	}
	if !st.words["QUERY"] {
		t.Fatal("confirmed word not written to the store")
	}
	if v.SessionSize() != 1 {
		t.Fatalf("session size = %d", v.SessionSize())
	}
}

func TestNegativeAndFailureAreDistinct(t *testing.T) {
	ctx := context.Background()

	neg := New(Options{List: testList(t), Checker: &fakeChecker{known: map[string]bool{}}})
	if err := neg.Validate(ctx, "QZXWV"); !errors.Is(err, game.ErrNotInWordList) {
		t.Fatalf("negative err = %v, want ErrNotInWordList", err)
	}

	down := New(Options{List: testList(t), Checker: &fakeChecker{err: errors.New("dial tcp: refused")}})
	err := down.Validate(ctx, "QUERY")
	if !errors.Is(err, game.ErrVerificationUnavailable) || errors.Is(err, game.ErrNotInWordList) {
		t.Fatalf("failure err = %v, want only ErrVerificationUnavailable", err)
	}
	if down.SessionSize() != 0 {
		t.Fatal("failed lookup must not be cached")
	}
}

func TestTimeoutIsVerificationUnavailable(t *testing.T) {
	c := &fakeChecker{known: map[string]bool{"QUERY": true}, delay: time.Second}
	v := New(Options{List: testList(t), Checker: c, Timeout: 20 * time.Millisecond})
	if err := v.Validate(context.Background(), "QUERY"); !errors.Is(err, game.ErrVerificationUnavailable) {
		t.Fatalf("err = %v, want ErrVerificationUnavailable", err)
	}
}

func TestOfflineRejectsUnknown(t *testing.T) {
	v := New(Options{List: testList(t)})
	if err := v.Validate(context.Background(), "QUERY"); !errors.Is(err, game.ErrNotInWordList) {
		t.Fatalf("err = %v, want ErrNotInWordList", err)
	}
	if err := v.Validate(context.Background(), "SPOONS"); !errors.Is(err, game.ErrInvalidLength) {
		t.Fatalf("err = %v, want ErrInvalidLength", err)
	}
}

func TestStoreHitSkipsLiveLookup(t *testing.T) {
	c := &fakeChecker{}
	st := &fakeStore{words: map[string]bool{"QUERY": true}}
	v := New(Options{List: testList(t), Checker: c, Store: st})
	if err := v.Validate(context.Background(), "QUERY"); err != nil {
		t.Fatal(err)
	}
	if c.calls.Load() != 0 {
		t.Fatal("store hit should not reach the checker")
	}
}

func TestStoreErrorFallsThroughToLive(t *testing.T) {
	c := &fakeChecker{known: map[string]bool{"QUERY": true}}
	st := &fakeStore{words: map[string]bool{}, hasErr: errors.New("store offline")}
	v := New(Options{List: testList(t), Checker: c, Store: st})
	if err := v.Validate(context.Background(), "QUERY"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.calls.Load() != 1 {
		t.Fatalf("checker calls = %d, want 1", c.calls.Load())
	}
}

func TestConcurrentLookupsCollapse(t *testing.T) {
	release := make(chan struct{})
	var entered sync.Once
	started := make(chan struct{})
	c := &fakeChecker{known: map[string]bool{"QUERY": true}}
	c.onCall = func() {
		entered.Do(func() { close(started) })
		<-release
	}
	v := New(Options{List: testList(t), Checker: c})

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- v.Validate(context.Background(), "QUERY")
	}()
	<-started
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- v.Validate(context.Background(), "QUERY")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}
	if got := c.calls.Load(); got > 2 {
		t.Fatalf("checker calls = %d, want concurrent lookups collapsed", got)
	}
}

func TestWordLengthFollowsOptions(t *testing.T) {
	c := &fakeChecker{known: map[string]bool{"PLANET": true}}
	v := New(Options{List: testList(t), Checker: c, WordLength: 6})
	ctx := context.Background()

	if err := v.Validate(ctx, "planet"); err != nil {
		t.Fatalf("six-letter word: %v", err)
	}
	if err := v.Validate(ctx, "crane"); !errors.Is(err, game.ErrInvalidLength) {
		t.Fatalf("five-letter word with length 6: %v", err)
	}
	if err := New(Options{List: testList(t)}).Validate(ctx, "planet"); !errors.Is(err, game.ErrInvalidLength) {
		t.Fatalf("default length accepted six letters: %v", err)
	}
}
