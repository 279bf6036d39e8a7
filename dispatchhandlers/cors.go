package dispatchhandlers

import (
	"net/http"
	"strings"

	"github.com/vitalvas/hermod/dispatch"
)

// CORSMethodMiddleware returns a middleware that sets the
// Access-Control-Allow-Methods response header (Fetch Standard, CORS
// protocol) to the methods the compiled router serves the request path
// under. No header is set for paths without concrete-method registrations.
func CORSMethodMiddleware(cr *dispatch.CompiledRouter) dispatch.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed := cr.Allowed(r.URL.EscapedPath()); len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(allowed, ","))
			}

			next.ServeHTTP(w, r)
		})
	}
}
