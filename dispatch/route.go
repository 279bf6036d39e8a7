package dispatch

import (
	"net/http"
	"sort"

	"github.com/vitalvas/hermod/engine"
)

// methodAny is the method-map slot used for registrations that serve every
// method.
const methodAny = "*"

// routeEntry is one pattern in the registry arena. Its id is its index in
// the arena; merging renumbers entries moved in from another router.
type routeEntry struct {
	id      int
	pattern string
	tpl     engine.Template
	slots   map[string]*slot
}

// slot is one (method, handler) registration on an entry together with the
// route-scoped middleware attached to that registration. Middleware lives on
// the slot rather than the entry so that entries combined by a merge keep
// each source router's layering per method.
type slot struct {
	handler    http.Handler
	middleware []Middleware

	// fallbackRole marks synthetic entries a Mount registers for the
	// sub-router's fallback. They dispatch like routes but requests they
	// serve are treated as unmatched: no MatchResult, extractors reject.
	fallbackRole bool
}

func (e *routeEntry) methodsSorted() []string {
	out := make([]string, 0, len(e.slots))
	for m := range e.slots {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Route is the chainable view of one registration call, returned by Handle,
// Method, and the verb helpers. Calls on a Route that carries an error are
// no-ops; the error also fails Compile.
type Route struct {
	router *Router
	entry  *routeEntry
	slots  []*slot
	err    error
}

// Use attaches route-scoped middleware to the handlers registered by this
// call. Scoped middleware runs inside every router-wide middleware and
// outside the handler, in attachment order.
func (r *Route) Use(middleware ...Middleware) *Route {
	if r.err != nil {
		return r
	}
	for _, s := range r.slots {
		s.middleware = append(s.middleware, middleware...)
	}
	return r
}

// GetError returns an error recorded while registering this route.
func (r *Route) GetError() error { return r.err }

// Pattern returns the registered pattern.
func (r *Route) Pattern() string {
	if r.entry == nil {
		return ""
	}
	return r.entry.pattern
}

// Methods returns the methods registered on the route's pattern, sorted.
// A registration for every method is reported as "*".
func (r *Route) Methods() []string {
	if r.entry == nil {
		return nil
	}
	return r.entry.methodsSorted()
}

func methodLabel(method string) string {
	if method == methodAny {
		return "any method"
	}
	return method
}
