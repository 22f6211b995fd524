package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordmaster/internal/config"
)

// playerTokenHeader carries a freshly minted token for clients that use
// bearer auth instead of cookies.
const playerTokenHeader = "X-Player-Token"

// ctxPlayerKey is the context key type for the player id.
type ctxPlayerKey struct{}

// playerFrom returns the player id set by withPlayer.
func playerFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxPlayerKey{}).(string)
	return id
}

// identity mints and verifies anonymous player tokens: HS256 JWTs whose
// subject is a random player id.
type identity struct {
	secret []byte
	cookie string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func newIdentity(cfg config.Config, now func() time.Time) *identity {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	cookie := cfg.PlayerCookie
	if cookie == "" {
		cookie = "wm_player"
	}
	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &identity{
		secret: []byte(secret),
		cookie: cookie,
		ttl:    ttl,
		secure: strings.HasPrefix(cfg.ClientOrigin, "https://"),
		now:    now,
	}
}

// sign creates a token for playerID and returns it with its expiry.
func (id *identity) sign(playerID string) (string, time.Time, error) {
	now := id.now()
	exp := now.Add(id.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(id.secret)
	return ss, exp, err
}

// verify returns the player id inside a valid token.
func (id *identity) verify(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return id.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(id.now))
	if err != nil {
		return "", err
	}
	if !t.Valid || claims.Subject == "" {
		return "", errors.New("invalid player token")
	}
	return claims.Subject, nil
}

// setCookie writes the player cookie with appropriate security attributes.
func (id *identity) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if id.secure {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     id.cookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   id.secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   int(id.ttl / time.Second),
	})
}

// bearerOrCookie extracts a token from the Authorization header or the cookie.
func (id *identity) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(id.cookie); err == nil {
		return c.Value
	}
	return ""
}

// withPlayer resolves the caller's player id, minting a new identity on
// first contact or when the presented token is invalid. It never 401s.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var playerID string
		if tok := s.ids.bearerOrCookie(r); tok != "" {
			pid, err := s.ids.verify(tok)
			if err == nil {
				playerID = pid
			} else {
				log.Debug().Err(err).Msg("discarding player token")
			}
		}
		if playerID == "" {
			playerID = uuid.NewString()
			tok, exp, err := s.ids.sign(playerID)
			if err != nil {
				log.Error().Err(err).Msg("sign player token")
				writeError(w, http.StatusInternalServerError, "server_error", "could not issue identity")
				return
			}
			s.ids.setCookie(w, tok, exp)
			w.Header().Set(playerTokenHeader, tok)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, playerID)))
	})
}
