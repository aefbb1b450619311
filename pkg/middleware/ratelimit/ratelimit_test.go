package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-lua/pkg/middleware/ratelimit"
)

func TestMiddlewareDisabled(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ratelimit.Middleware(ratelimit.Config{}))
}

func TestMiddlewareLimits(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rps         float64
		burst       int
		numReqs     int
		wantOK      int
		wantLimited int
	}{
		"within rate": {rps: 100, burst: 10, numReqs: 5, wantOK: 5},
		"over rate":   {rps: 0.001, burst: 2, numReqs: 5, wantOK: 2, wantLimited: 3},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mw := ratelimit.Middleware(ratelimit.Config{RPS: tc.rps, Burst: tc.burst})
			require.NotNil(t, mw)
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			ok, limited := 0, 0
			for range tc.numReqs {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
				switch rec.Code {
				case http.StatusOK:
					ok++
				case http.StatusTooManyRequests:
					limited++
					assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				}
			}
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantLimited, limited)
		})
	}
}
