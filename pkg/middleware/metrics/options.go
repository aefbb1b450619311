package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var (
	skipMu    sync.RWMutex
	skipPaths = map[string]struct{}{}
)

// Skip keeps paths, typically scrape endpoints, out of the HTTP counters.
func Skip(paths ...string) {
	skipMu.Lock()
	defer skipMu.Unlock()
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			skipPaths[p] = struct{}{}
		}
	}
}

func skipped(r *http.Request) bool {
	skipMu.RLock()
	defer skipMu.RUnlock()
	_, ok := skipPaths[r.URL.Path]
	return ok
}

// uriLabel is the matched route pattern. Requests that reached no route
// share one label so client-chosen paths cannot grow the series count.
func uriLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" && p != "/*" {
			return p
		}
	}
	return "unmatched"
}
