package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware writes one access log line per request.
type Middleware struct {
	log  *zap.Logger
	body bodyPolicy
}

// NewMiddleware returns an access logger writing to l. Request bodies are
// logged only for bodyPaths.
func NewMiddleware(l *zap.Logger, bodyPaths ...string) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{log: l, body: newBodyPolicy(bodyPaths)}
}

func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// read and restore the body only when it may be logged
			var body []byte
			if m.body.wants(r) {
				if b, err := io.ReadAll(r.Body); err == nil {
					body = b
				}
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				log := m.log.With(
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				if m.body.allows(r, body) {
					log.Info("access", zap.ByteString("requestData", body))
				} else {
					log.Info("access")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
