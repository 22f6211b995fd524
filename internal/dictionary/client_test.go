package dictionary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const craneEntry = `[{"word":"crane","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"A large, tall machine used for lifting heavy objects."}]}]}]`

func newDictionaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crane":
			_, _ = w.Write([]byte(craneEntry))
		case "/bland":
			_, _ = w.Write([]byte(`[{"word":"bland","meanings":[]}]`))
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(craneEntry))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"No Definitions Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckWordExists(t *testing.T) {
	srv := newDictionaryServer(t)
	c := New(srv.URL, time.Second)
	ctx := context.Background()

	if ok, err := c.CheckWordExists(ctx, "CRANE"); err != nil || !ok {
		t.Fatalf("CRANE: ok=%v err=%v", ok, err)
	}
	if ok, err := c.CheckWordExists(ctx, "QZXWV"); err != nil || ok {
		t.Fatalf("QZXWV: ok=%v err=%v", ok, err)
	}
	if _, err := c.CheckWordExists(ctx, "BOOM"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("5xx err = %v, want ErrUnavailable", err)
	}
}

func TestCheckWordExistsTimeout(t *testing.T) {
	srv := newDictionaryServer(t)
	c := New(srv.URL, 50*time.Millisecond)
	if _, err := c.CheckWordExists(context.Background(), "SLOW"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("timeout err = %v, want ErrUnavailable", err)
	}
}

func TestDefine(t *testing.T) {
	srv := newDictionaryServer(t)
	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	def, err := c.Define(ctx, "crane")
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if def != "A large, tall machine used for lifting heavy objects." {
		t.Fatalf("definition = %q", def)
	}
	if def, err := c.Define(ctx, "bland"); err != nil || def != "" {
		t.Fatalf("entry without meanings: %q, %v", def, err)
	}
	if def, err := c.Define(ctx, "qzxwv"); err != nil || def != "" {
		t.Fatalf("unknown word: %q, %v", def, err)
	}
}

func TestUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", 100*time.Millisecond)
	if _, err := c.CheckWordExists(context.Background(), "CRANE"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
