package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/vitalvas/hermod/engine"
)

// MatchResult describes the route a request resolved to: the entry id, the
// registered pattern with placeholders intact, and the decoded captures.
type MatchResult struct {
	// EntryID identifies the matched entry within its CompiledRouter.
	// Matches injected by SetTestMatch carry -1.
	EntryID int

	// Pattern is the registered template, never a reconstruction from the
	// request path: /users/42 matched by /users/{id} yields "/users/{id}".
	Pattern string

	params  engine.Params
	invalid *ParamError
}

// Params returns the captures in declaration order, percent-decoded. A
// capture whose raw value held an invalid escape poisons the whole set and
// yields a *ParamError wrapping ErrParamEncoding.
func (m *MatchResult) Params() (engine.Params, error) {
	if m.invalid != nil {
		return nil, m.invalid
	}
	return m.params, nil
}

func newMatchResult(id int, pattern string, raw engine.Params) *MatchResult {
	res := &MatchResult{EntryID: id, Pattern: pattern}
	if len(raw) == 0 {
		return res
	}
	params := make(engine.Params, 0, len(raw))
	for _, p := range raw {
		if strings.HasPrefix(p.Name, "__") {
			continue
		}
		value, err := url.PathUnescape(p.Value)
		if err != nil {
			res.invalid = &ParamError{Name: p.Name, Value: p.Value, Err: ErrParamEncoding}
			return res
		}
		params = append(params, engine.Param{Name: p.Name, Value: value})
	}
	res.params = params
	return res
}

type compiledSlot struct {
	handler      http.Handler
	fallbackRole bool
}

type compiledEntry struct {
	pattern string
	slots   map[string]*compiledSlot
}

// CompiledRouter is the immutable dispatch structure Compile produces. All
// lookup tables are read-only after construction, so it serves concurrent
// requests without locking. It implements http.Handler.
type CompiledRouter struct {
	entries []*compiledEntry

	// matchers holds one matcher per concrete method, each covering the
	// patterns that define that method plus every any-method pattern.
	// Methods without a matcher of their own fall back to anyMatcher.
	matchers   map[string]engine.Matcher
	anyMatcher engine.Matcher
	methods    []string

	fallback http.Handler
	state    any
	stateSet bool
}

// Compile validates the accumulated registrations and builds the
// CompiledRouter. It fails with the first recorded registration error, with
// a *ConflictError when the matching engine rejects the route set, or with
// a *ConfigError when a handler's shared-state requirement is unmet. The
// router may keep being modified afterwards; the compiled result never
// changes.
func (r *Router) Compile() (*CompiledRouter, error) {
	if r.err != nil {
		return nil, r.err
	}

	cr := &CompiledRouter{
		entries:  make([]*compiledEntry, len(r.entries)),
		matchers: make(map[string]engine.Matcher),
		state:    r.state,
		stateSet: r.stateSet,
	}

	methods := make(map[string]struct{})
	hasAny := false
	for _, e := range r.entries {
		for method := range e.slots {
			if method == methodAny {
				hasAny = true
				continue
			}
			methods[method] = struct{}{}
		}
	}
	cr.methods = make([]string, 0, len(methods))
	for method := range methods {
		cr.methods = append(cr.methods, method)
	}
	sort.Strings(cr.methods)

	if hasAny {
		m, err := r.buildMatcher(methodAny)
		if err != nil {
			return nil, err
		}
		cr.anyMatcher = m
	}
	for _, method := range cr.methods {
		m, err := r.buildMatcher(method)
		if err != nil {
			return nil, err
		}
		cr.matchers[method] = m
	}

	// State requirements are checked against the raw handlers, before any
	// middleware hides them.
	for _, e := range r.entries {
		for _, method := range e.methodsSorted() {
			s := e.slots[method]
			if err := validateState(s.handler, r.state); err != nil {
				return nil, &ConfigError{
					Reason: fmt.Sprintf("%s %s", methodLabel(method), e.pattern),
					Err:    err,
				}
			}
		}
	}
	if r.fallback != nil {
		if err := validateState(r.fallback, r.state); err != nil {
			return nil, &ConfigError{Reason: "fallback handler", Err: err}
		}
	}

	for i, e := range r.entries {
		ce := &compiledEntry{
			pattern: e.pattern,
			slots:   make(map[string]*compiledSlot, len(e.slots)),
		}
		for method, s := range e.slots {
			h := wrap(s.handler, s.middleware)
			h = wrap(h, r.middleware)
			ce.slots[method] = &compiledSlot{handler: h, fallbackRole: s.fallbackRole}
		}
		cr.entries[i] = ce
	}

	fb := r.fallback
	if fb == nil {
		fb = http.HandlerFunc(defaultFallback)
	}
	cr.fallback = wrap(fb, r.middleware)

	return cr, nil
}

// buildMatcher compiles the matcher for one method table: the patterns
// registered for method plus every any-method pattern. For methodAny the
// table holds the any-method patterns alone.
func (r *Router) buildMatcher(method string) (engine.Matcher, error) {
	b := r.engine.NewBuilder()
	for _, e := range r.entries {
		_, direct := e.slots[method]
		_, viaAny := e.slots[methodAny]
		if !direct && !viaAny {
			continue
		}
		if err := b.Insert(e.tpl, engine.Key(e.id)); err != nil {
			return nil, &ConflictError{Pattern: e.pattern, Method: method, Err: err}
		}
	}
	m, err := b.Compile()
	if err != nil {
		cerr := &ConflictError{Method: method, Err: err}
		var eng *engine.ConflictError
		if errors.As(err, &eng) {
			cerr.Pattern = eng.Template
		}
		return nil, cerr
	}
	return m, nil
}

// ServeHTTP resolves the request against the route table and runs either
// the matched handler or the fallback. The raw, undecoded request path is
// matched; captures are decoded afterwards. On the method-not-allowed
// outcome the Allow header is set before the fallback runs.
func (cr *CompiledRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := requestPath(req.URL.EscapedPath())
	res, s, err := cr.lookup(req.Method, path)

	rc := &routeContext{state: cr.state, hasState: cr.stateSet}
	var h http.Handler
	switch {
	case err == nil && !s.fallbackRole:
		rc.match = res
		h = s.handler
	case err == nil:
		// A mounted fallback serves the request but counts as unmatched.
		rc.err = ErrNotFound
		h = s.handler
	default:
		rc.err = err
		var mna *MethodNotAllowedError
		if errors.As(err, &mna) {
			w.Header().Set("Allow", strings.Join(mna.Allow, ", "))
		}
		h = cr.fallback
	}

	ctx := context.WithValue(req.Context(), routeContextKey{}, rc)
	h.ServeHTTP(w, req.WithContext(ctx))
}

// Lookup resolves method and path exactly the way a request would dispatch,
// without running any handler. It returns the match, ErrNotFound, or a
// *MethodNotAllowedError carrying the Allow set.
func (cr *CompiledRouter) Lookup(method, path string) (*MatchResult, error) {
	res, s, err := cr.lookup(normalizeMethod(method), requestPath(path))
	if err != nil {
		return nil, err
	}
	if s.fallbackRole {
		return nil, ErrNotFound
	}
	return res, nil
}

func (cr *CompiledRouter) lookup(method, path string) (*MatchResult, *compiledSlot, error) {
	matcher := cr.matchers[method]
	if matcher == nil {
		matcher = cr.anyMatcher
	}
	if matcher != nil {
		if m, ok := matcher.Lookup(path); ok {
			e := cr.entries[m.Key]
			s := e.slots[method]
			if s == nil {
				s = e.slots[methodAny]
			}
			if s != nil {
				return newMatchResult(int(m.Key), e.pattern, m.Params), s, nil
			}
		}
	}
	if allow := cr.Allowed(path); len(allow) > 0 {
		return nil, nil, &MethodNotAllowedError{Allow: allow}
	}
	return nil, nil, ErrNotFound
}

// Allowed returns, sorted, every concrete method some route serves path
// under. It is the Allow set of a method-not-allowed response; the
// any-method registrations contribute no entries of their own.
func (cr *CompiledRouter) Allowed(path string) []string {
	path = requestPath(path)
	var allow []string
	for _, method := range cr.methods {
		if _, ok := cr.matchers[method].Lookup(path); ok {
			allow = append(allow, method)
		}
	}
	return allow
}

// Pattern returns the registered pattern for an entry id, as found in
// MatchResult.EntryID.
func (cr *CompiledRouter) Pattern(id int) (string, bool) {
	if id < 0 || id >= len(cr.entries) {
		return "", false
	}
	return cr.entries[id].pattern, true
}

// Patterns returns every registered pattern in entry-id order.
func (cr *CompiledRouter) Patterns() []string {
	out := make([]string, len(cr.entries))
	for i, e := range cr.entries {
		out[i] = e.pattern
	}
	return out
}

func requestPath(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}

// defaultFallback writes the terminal response when no fallback handler is
// configured. The Allow header for the 405 case is already set by the
// dispatcher.
func defaultFallback(w http.ResponseWriter, r *http.Request) {
	if errors.Is(RouteError(r), ErrMethodNotAllowed) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	http.NotFound(w, r)
}
