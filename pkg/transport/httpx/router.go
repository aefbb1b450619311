// pkg/transport/httpx/router.go
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is the engine routing contract the server handle depends on.
// NewChi implements it.
type Router interface {
	// Handle routes every method on path to h.
	Handle(path string, h http.Handler)
	Method(method, path string, h http.Handler)
	NotFound(h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Mux() http.Handler
}

// chiRouter is our default Router backed by github.com/go-chi/chi.
type chiRouter struct{ r *chi.Mux }

// NewChi returns a Chi-backed Router.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Handle(path string, h http.Handler)         { c.r.Handle(path, h) }
func (c *chiRouter) Method(method, path string, h http.Handler) { c.r.Method(method, path, h) }
func (c *chiRouter) NotFound(h http.Handler)                    { c.r.NotFound(h.ServeHTTP) }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler)  { c.r.Use(mw...) }
func (c *chiRouter) Mux() http.Handler                          { return c.r }
