package dispatch

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceMiddleware(trace *[]string, name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name+":before")
			next.ServeHTTP(w, r)
			*trace = append(*trace, name+":after")
		})
	}
}

func traceHandler(trace *[]string, name string) http.HandlerFunc {
	return func(_ http.ResponseWriter, _ *http.Request) {
		*trace = append(*trace, name)
	}
}

func TestMiddlewareLayering(t *testing.T) {
	t.Run("runs router-wide middleware in registration order", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Use(traceMiddleware(&trace, "outer"))
		r.Use(traceMiddleware(&trace, "inner"))
		r.Get("/users", traceHandler(&trace, "handler"))
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/users")
		assert.Equal(t, []string{
			"outer:before", "inner:before", "handler", "inner:after", "outer:after",
		}, trace)
	})

	t.Run("wraps routes registered before Use was called", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Get("/users", traceHandler(&trace, "handler"))
		r.Use(traceMiddleware(&trace, "late"))
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/users")
		assert.Equal(t, []string{"late:before", "handler", "late:after"}, trace)
	})

	t.Run("runs route-scoped middleware inside router-wide", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Use(traceMiddleware(&trace, "global"))
		r.Get("/users", traceHandler(&trace, "handler")).
			Use(traceMiddleware(&trace, "scoped1")).
			Use(traceMiddleware(&trace, "scoped2"))
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/users")
		assert.Equal(t, []string{
			"global:before", "scoped1:before", "scoped2:before",
			"handler",
			"scoped2:after", "scoped1:after", "global:after",
		}, trace)
	})

	t.Run("scopes middleware to its own registration", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Get("/users", traceHandler(&trace, "get")).Use(traceMiddleware(&trace, "auth"))
		r.Post("/users", traceHandler(&trace, "post"))
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/users")
		assert.Equal(t, []string{"auth:before", "get", "auth:after"}, trace)

		trace = nil
		doRequest(cr, http.MethodPost, "/users")
		assert.Equal(t, []string{"post"}, trace)
	})

	t.Run("wraps the fallback with router-wide middleware only", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Use(traceMiddleware(&trace, "global"))
		r.Get("/users", traceHandler(&trace, "handler")).Use(traceMiddleware(&trace, "scoped"))
		r.FallbackFunc(traceHandler(&trace, "fallback"))
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/missing")
		assert.Equal(t, []string{"global:before", "fallback", "global:after"}, trace)
	})

	t.Run("wraps the default fallback with router-wide middleware", func(t *testing.T) {
		var trace []string
		r := NewRouter()
		r.Use(traceMiddleware(&trace, "global"))
		cr := mustCompileRouter(t, r)

		w := doRequest(cr, http.MethodGet, "/missing")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, []string{"global:before", "global:after"}, trace)
	})

	t.Run("exposes the match to middleware", func(t *testing.T) {
		r := NewRouter()
		var seen string
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				pattern, err := MatchedPath(req)
				require.NoError(t, err)
				seen = pattern
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "ok")
		})
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodGet, "/users/42")
		assert.Equal(t, "/users/{id}", seen)
	})

	t.Run("exposes the dispatch outcome to middleware around the fallback", func(t *testing.T) {
		r := NewRouter()
		var outcome error
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				outcome = RouteError(req)
				next.ServeHTTP(w, req)
			})
		})
		r.Get("/users", noopHandler)
		cr := mustCompileRouter(t, r)

		doRequest(cr, http.MethodPost, "/users")
		assert.ErrorIs(t, outcome, ErrMethodNotAllowed)
	})
}
