// Package auth guards action paths with signed bearer assertions.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Config enables HS256 bearer verification. A nil or empty Secret disables it.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

type Role struct {
	Name string `json:"name"`
}

type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

type Middleware struct {
	secret         []byte
	assertIssuer   string
	assertAudience string
	assertLeeway   time.Duration
}

// New returns nil when cfg carries no secret.
func New(cfg Config) *Middleware {
	if len(cfg.Secret) == 0 {
		return nil
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = 60 * time.Second
	}
	return &Middleware{
		secret:         cfg.Secret,
		assertIssuer:   cfg.Issuer,
		assertAudience: cfg.Audience,
		assertLeeway:   leeway,
	}
}

// Middleware rejects requests without a valid "Authorization: Bearer" token.
func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="steeze-lua"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			u, err := m.validateAssertion(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userCtxKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the verified user, or the zero User.
func UserFrom(ctx context.Context) User {
	if user, ok := ctx.Value(userCtxKey).(User); ok {
		return user
	}
	return User{}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
