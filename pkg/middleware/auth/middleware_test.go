package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-lua/pkg/middleware/auth"
)

var secret = []byte("test-secret")

func sign(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewDisabledWithoutSecret(t *testing.T) {
	t.Parallel()
	assert.Nil(t, auth.New(auth.Config{}))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	now := time.Now()
	valid := jwt.MapClaims{"sub": "bob", "iss": "steeze", "aud": "actions", "role": "admin", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()}

	tests := map[string]struct {
		header   string
		wantCode int
		wantUser string
	}{
		"missing header": {wantCode: http.StatusUnauthorized},
		"wrong scheme":   {header: "Basic Ym9iOnB3", wantCode: http.StatusUnauthorized},
		"valid token":    {header: "Bearer " + sign(t, secret, valid), wantCode: http.StatusOK, wantUser: "bob"},
		"bad signature":  {header: "Bearer " + sign(t, []byte("other"), valid), wantCode: http.StatusUnauthorized},
		"wrong issuer": {
			header:   "Bearer " + sign(t, secret, jwt.MapClaims{"sub": "bob", "iss": "evil", "aud": "actions", "exp": now.Add(time.Hour).Unix()}),
			wantCode: http.StatusUnauthorized,
		},
		"expired": {
			header:   "Bearer " + sign(t, secret, jwt.MapClaims{"sub": "bob", "iss": "steeze", "aud": "actions", "exp": now.Add(-time.Hour).Unix()}),
			wantCode: http.StatusUnauthorized,
		},
	}

	m := auth.New(auth.Config{Secret: secret, Issuer: "steeze", Audience: "actions"})
	require.NotNil(t, m)

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var gotUser string
			h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = auth.UserFrom(r.Context()).Username
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantUser, gotUser)
		})
	}
}
