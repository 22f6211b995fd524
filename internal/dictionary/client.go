// Package dictionary talks to the HTTP dictionary collaborator. It answers two
// questions about a word: does it exist, and what does it mean.
//
// The default endpoint is the free dictionaryapi.dev service:
//
//	GET {base}/{word}  → 200 with entries | 404 when unknown
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultBaseURL is the public English dictionary endpoint.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// ErrUnavailable means the collaborator could not give an answer.
var ErrUnavailable = errors.New("dictionary unavailable")

var tracer = otel.Tracer("github.com/robalobadob/wordmaster/internal/dictionary")

// definitionPath selects the first definition of the first meaning.
const definitionPath = "0.meanings.0.definitions.0.definition"

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A zero timeout means 4 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CheckWordExists reports whether the dictionary knows word.
func (c *Client) CheckWordExists(ctx context.Context, word string) (bool, error) {
	ctx, span := tracer.Start(ctx, "dictionary.check")
	defer span.End()
	span.SetAttributes(attribute.String("word", word))

	_, found, err := c.lookup(ctx, word)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return false, err
	}
	span.SetAttributes(attribute.Bool("exists", found))
	return found, nil
}

// Define returns the first definition for word, or "" when there is none.
func (c *Client) Define(ctx context.Context, word string) (string, error) {
	ctx, span := tracer.Start(ctx, "dictionary.define")
	defer span.End()
	span.SetAttributes(attribute.String("word", word))

	body, found, err := c.lookup(ctx, word)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return "", err
	}
	if !found {
		return "", nil
	}
	return strings.TrimSpace(gjson.GetBytes(body, definitionPath).String()), nil
}

// lookup fetches the raw entry. found is false on 404.
func (c *Client) lookup(ctx context.Context, word string) (body []byte, found bool, err error) {
	u := c.baseURL + "/" + url.PathEscape(strings.ToLower(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, false, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return body, true, nil
}
