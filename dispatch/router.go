package dispatch

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vitalvas/hermod/chiengine"
	"github.com/vitalvas/hermod/engine"
)

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Option configures a Router.
type Option func(*Router)

// WithEngine replaces the default chi-backed matching engine.
func WithEngine(eng engine.Engine) Option {
	return func(r *Router) { r.engine = eng }
}

// Router accumulates route registrations, middleware, a fallback handler,
// and shared state, then compiles them into an immutable CompiledRouter.
// A Router is built during startup from a single goroutine and is not safe
// for concurrent use; the CompiledRouter it produces is.
//
// Registration methods record errors instead of panicking. The first error
// is kept and fails Compile, so a broken route set never starts serving.
type Router struct {
	engine     engine.Engine
	entries    []*routeEntry
	byPattern  map[string]int
	middleware []Middleware
	fallback   http.Handler
	state      any
	stateSet   bool
	err        error
}

// NewRouter returns an empty router backed by the chi matching engine,
// unless an option substitutes another engine.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		engine:    chiengine.New(),
		byPattern: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Err returns the first error recorded while building the router. Compile
// returns the same error.
func (r *Router) Err() error { return r.err }

func (r *Router) recordErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Use appends router-wide middleware. It wraps every dispatched request,
// fallback handling included, in the order added with the first element
// outermost.
func (r *Router) Use(middleware ...Middleware) {
	r.middleware = append(r.middleware, middleware...)
}

// Fallback sets the handler that serves requests no route matches. The same
// handler covers both the not-found and the method-not-allowed outcomes;
// RouteError tells them apart inside the handler. Setting a fallback
// replaces any previous one. Without a fallback the router writes plain
// terminal responses.
func (r *Router) Fallback(h http.Handler) {
	r.fallback = h
}

// FallbackFunc sets the fallback from a plain function.
func (r *Router) FallbackFunc(f http.HandlerFunc) {
	r.fallback = f
}

// WithState attaches the single shared value handlers and middleware read
// through StateFrom. Attaching a second value is a configuration error
// reported by Compile.
func (r *Router) WithState(state any) *Router {
	if r.stateSet {
		r.recordErr(&ConfigError{Reason: "shared state is already attached"})
		return r
	}
	r.state = state
	r.stateSet = true
	return r
}

// Method registers handler for an HTTP method and pattern. The method is
// case-insensitive.
func (r *Router) Method(method, pattern string, handler http.Handler) *Route {
	return r.addSlot(normalizeMethod(method), pattern, &slot{handler: handler})
}

// MethodFunc registers a plain function for an HTTP method and pattern.
func (r *Router) MethodFunc(method, pattern string, f http.HandlerFunc) *Route {
	return r.Method(method, pattern, f)
}

// Handle registers handler for every method on pattern. Concrete-method
// registrations on the same pattern win over it at dispatch time.
func (r *Router) Handle(pattern string, handler http.Handler) *Route {
	return r.addSlot(methodAny, pattern, &slot{handler: handler})
}

// HandleFunc registers a plain function for every method on pattern.
func (r *Router) HandleFunc(pattern string, f http.HandlerFunc) *Route {
	return r.Handle(pattern, f)
}

// Get registers a GET handler for pattern.
func (r *Router) Get(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodGet, pattern, f)
}

// Head registers a HEAD handler for pattern. HEAD is never implied by a GET
// registration; register it explicitly or use Handle.
func (r *Router) Head(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodHead, pattern, f)
}

// Post registers a POST handler for pattern.
func (r *Router) Post(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodPost, pattern, f)
}

// Put registers a PUT handler for pattern.
func (r *Router) Put(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodPut, pattern, f)
}

// Patch registers a PATCH handler for pattern.
func (r *Router) Patch(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodPatch, pattern, f)
}

// Delete registers a DELETE handler for pattern.
func (r *Router) Delete(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodDelete, pattern, f)
}

// Options registers an OPTIONS handler for pattern.
func (r *Router) Options(pattern string, f http.HandlerFunc) *Route {
	return r.Method(http.MethodOptions, pattern, f)
}

// Routes returns the registered patterns in registration order.
func (r *Router) Routes() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.pattern
	}
	return out
}

func normalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

// addSlot validates and stores one (method, pattern, handler) registration.
// All registration paths, merges and mounts included, funnel through here.
func (r *Router) addSlot(method, pattern string, s *slot) *Route {
	rt := &Route{router: r}

	fail := func(err error) *Route {
		rt.err = err
		r.recordErr(err)
		return rt
	}

	if s.handler == nil {
		return fail(fmt.Errorf("nil handler for pattern %q", pattern))
	}
	if method == "" {
		return fail(fmt.Errorf("empty method for pattern %q", pattern))
	}

	tpl, err := engine.ParseTemplate(pattern)
	if err != nil {
		return fail(err)
	}
	if !s.fallbackRole {
		for _, name := range tpl.CaptureNames() {
			if strings.HasPrefix(name, "__") {
				return fail(&engine.PatternError{
					Pattern: pattern,
					Reason:  fmt.Sprintf("capture name %q is reserved", name),
				})
			}
		}
	}

	entry := r.entryFor(pattern, tpl)
	if _, dup := entry.slots[method]; dup {
		return fail(&ConflictError{Pattern: pattern, Method: method})
	}
	entry.slots[method] = s

	rt.entry = entry
	rt.slots = []*slot{s}
	return rt
}

// entryFor returns the arena entry for pattern, creating it on first use.
// Later registrations on the same pattern extend the entry's method map, so
// a pattern keeps a single id however many methods it serves.
func (r *Router) entryFor(pattern string, tpl engine.Template) *routeEntry {
	if id, ok := r.byPattern[pattern]; ok {
		return r.entries[id]
	}
	e := &routeEntry{
		id:      len(r.entries),
		pattern: pattern,
		tpl:     tpl,
		slots:   make(map[string]*slot, 1),
	}
	r.entries = append(r.entries, e)
	r.byPattern[pattern] = e.id
	return e
}

// wrap applies middleware to h with the first element outermost.
func wrap(h http.Handler, middleware []Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
