package logger

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := chimd.RequestID(NewMiddleware(zap.New(core), "/logged", " ").Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	})))

	tests := map[string]struct {
		path     string
		wantBody bool
	}{
		"allowlisted body": {path: "/logged", wantBody: true},
		"redacted body":    {path: "/other"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(`{"a":1}`))
			req.Header.Set("Content-Type", "application/json")
			h.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.Equal(t, "access", entries[0].Message)
			assert.Equal(t, int64(http.StatusCreated), fields["status"])
			assert.Equal(t, int64(4), fields["responseSize"])
			assert.Equal(t, tc.path, fields["uri"])
			assert.NotEmpty(t, fields["requestId"])
			_, hasBody := fields["requestData"]
			assert.Equal(t, tc.wantBody, hasBody)
		})
	}
}

func TestProvideLoggersCreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := ProvideLoggers(dir)
	l.System.Info("hello")
	l.Access.Info("access")
	_ = l.System.Sync()
	_ = l.Access.Sync()

	assert.FileExists(t, filepath.Join(dir, SystemLogName))
	assert.FileExists(t, filepath.Join(dir, AccessLogName))
}

func TestBodyPolicy(t *testing.T) {
	p := newBodyPolicy([]string{"/form"})

	tests := map[string]struct {
		method string
		path   string
		ct     string
		body   string
		want   bool
	}{
		"listed form post": {method: http.MethodPost, path: "/form", ct: "application/x-www-form-urlencoded", body: "a=1", want: true},
		"unlisted path":    {method: http.MethodPost, path: "/other", ct: "application/json", body: "{}"},
		"get is never":     {method: http.MethodGet, path: "/form", ct: "application/json", body: "{}"},
		"binary body":      {method: http.MethodPut, path: "/form", ct: "application/octet-stream", body: "xx"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.ct)
			assert.Equal(t, tc.want, p.wants(req) && p.allows(req, []byte(tc.body)))
		})
	}
}
