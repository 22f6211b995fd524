// Package validator decides whether a guess is an acceptable word.
//
// Lookup order:
//  1. bundled valid-guess set
//  2. words confirmed earlier in this process (session cache)
//  3. the valid-word store, when configured
//  4. the live dictionary collaborator, when configured
//
// A live confirmation is cached for the session and written back to the
// store so later sessions answer locally.
package validator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/wordmaster/internal/game"
	"github.com/robalobadob/wordmaster/internal/words"
)

var tracer = otel.Tracer("github.com/robalobadob/wordmaster/internal/validator")

// Checker is the live word-existence collaborator.
type Checker interface {
	CheckWordExists(ctx context.Context, word string) (bool, error)
}

// WordStore is the persisted valid-word set.
type WordStore interface {
	HasValidWord(ctx context.Context, word string) (bool, error)
	PutValidWord(ctx context.Context, word string) error
}

// Options configures a Validator. Only List is required.
type Options struct {
	List    *words.List
	Checker Checker
	Store   WordStore
	// Timeout bounds one live lookup. Default 4s.
	Timeout time.Duration
	// WordLength is the accepted guess length. Default words.Length.
	WordLength int
}

// Validator implements game.WordValidator and is safe for concurrent use.
type Validator struct {
	list    *words.List
	checker Checker
	store   WordStore
	timeout time.Duration
	length  int

	mu      sync.RWMutex
	session map[string]struct{}

	group singleflight.Group
}

// New builds a Validator.
func New(opts Options) *Validator {
	if opts.Timeout <= 0 {
		opts.Timeout = 4 * time.Second
	}
	if opts.WordLength <= 0 {
		opts.WordLength = words.Length
	}
	return &Validator{
		list:    opts.List,
		checker: opts.Checker,
		store:   opts.Store,
		timeout: opts.Timeout,
		length:  opts.WordLength,
		session: make(map[string]struct{}),
	}
}

// Validate returns nil for an acceptable word, game.ErrNotInWordList when it
// is not a word, and an error wrapping game.ErrVerificationUnavailable when
// the live collaborator could not be reached.
func (v *Validator) Validate(ctx context.Context, word string) error {
	w := words.Normalize(word)
	if len(w) != v.length {
		return game.ErrInvalidLength
	}
	if !words.IsAlpha(w) {
		return game.ErrNotInWordList
	}
	if (v.list != nil && v.list.IsAllowed(w)) || v.known(w) {
		return nil
	}

	ctx, span := tracer.Start(ctx, "validator.remote")
	defer span.End()
	span.SetAttributes(attribute.String("word", w))

	if v.store != nil {
		ok, err := v.store.HasValidWord(ctx, w)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("word", w).Str("op", "has_valid_word").Msg("persistence failure")
		case ok:
			v.remember(w)
			return nil
		}
	}

	if v.checker == nil {
		return game.ErrNotInWordList
	}

	res, err, _ := v.group.Do(w, func() (any, error) {
		lctx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()
		return v.checker.CheckWordExists(lctx, w)
	})
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("word", w).Msg("word verification unavailable")
		return fmt.Errorf("%w: %v", game.ErrVerificationUnavailable, err)
	}
	if exists, _ := res.(bool); !exists {
		return game.ErrNotInWordList
	}

	v.remember(w)
	if v.store != nil {
		if err := v.store.PutValidWord(ctx, w); err != nil {
			log.Warn().Err(err).Str("word", w).Str("op", "put_valid_word").Msg("persistence failure")
		}
	}
	return nil
}

// SessionSize returns how many words were confirmed remotely this session.
func (v *Validator) SessionSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.session)
}

func (v *Validator) known(w string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.session[w]
	return ok
}

func (v *Validator) remember(w string) {
	v.mu.Lock()
	v.session[w] = struct{}{}
	v.mu.Unlock()
}
