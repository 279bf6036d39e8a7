package dispatch

import (
	"net/http"
	"strings"

	"github.com/vitalvas/hermod/engine"
)

// mountTailName is the reserved wildcard capture behind the catch-all entry
// a mounted fallback registers. Reserved "__" captures never appear in
// user-visible params.
const mountTailName = "__mount_tail"

// Mount flattens sub under prefix: every route of sub is re-registered in r
// as prefix+pattern behind a path-stripping layer, so sub's handlers and
// middleware observe request paths relative to the mount point while the
// match, its params, and MatchedPath still describe the full pattern. The
// prefix may contain captures but not a wildcard, must start with a slash,
// and must not be "/" or end with one.
//
// Sub's router-wide middleware moves with the mounted routes the same way a
// merge moves it. Sub's fallback, when set, is registered as a catch-all
// under the prefix: requests below the mount point that no mounted route
// matches reach it with RouteError reporting ErrNotFound. Later changes to
// sub do not affect r.
func (r *Router) Mount(prefix string, sub *Router) error {
	if sub == nil {
		return nil
	}
	if sub.err != nil {
		r.recordErr(sub.err)
		return sub.err
	}

	prefixTpl, err := parseMountPrefix(prefix)
	if err != nil {
		r.recordErr(err)
		return err
	}

	strip := stripPrefixLayer(prefixTpl)

	for _, e := range sub.entries {
		mounted := joinPattern(prefix, e.pattern)
		for _, method := range e.methodsSorted() {
			src := e.slots[method]
			moved := &slot{
				handler:      src.handler,
				middleware:   mountMiddleware(strip, sub.middleware, src.middleware),
				fallbackRole: src.fallbackRole,
			}
			if rt := r.addSlot(method, mounted, moved); rt.err != nil {
				return rt.err
			}
		}
	}

	if sub.fallback != nil {
		newSlot := func() *slot {
			return &slot{
				handler:      sub.fallback,
				middleware:   mountMiddleware(strip, sub.middleware, nil),
				fallbackRole: true,
			}
		}
		// The prefix itself, unless a mounted route already serves it.
		if id, ok := r.byPattern[prefix]; !ok || r.entries[id].slots[methodAny] == nil {
			if rt := r.addSlot(methodAny, prefix, newSlot()); rt.err != nil {
				return rt.err
			}
		}
		tail := prefix + "/{*" + mountTailName + "}"
		if rt := r.addSlot(methodAny, tail, newSlot()); rt.err != nil {
			return rt.err
		}
	}

	if sub.stateSet {
		if r.stateSet {
			err := &ConfigError{Reason: "both routers attach shared state"}
			r.recordErr(err)
			return err
		}
		r.state = sub.state
		r.stateSet = true
	}
	return nil
}

func parseMountPrefix(prefix string) (engine.Template, error) {
	tpl, err := engine.ParseTemplate(prefix)
	if err != nil {
		return engine.Template{}, err
	}
	fail := func(reason string) (engine.Template, error) {
		return engine.Template{}, &engine.PatternError{Pattern: prefix, Reason: reason}
	}
	if prefix == "/" {
		return fail("mount prefix must not be the root")
	}
	if strings.HasSuffix(prefix, "/") {
		return fail("mount prefix must not end with a slash")
	}
	if _, ok := tpl.Wildcard(); ok {
		return fail("mount prefix must not contain a wildcard")
	}
	for _, name := range tpl.CaptureNames() {
		if strings.HasPrefix(name, "__") {
			return fail("capture name \"" + name + "\" is reserved")
		}
	}
	return tpl, nil
}

func joinPattern(prefix, pattern string) string {
	if pattern == "/" {
		return prefix
	}
	return prefix + pattern
}

func mountMiddleware(strip Middleware, global, scoped []Middleware) []Middleware {
	out := make([]Middleware, 0, 1+len(global)+len(scoped))
	out = append(out, strip)
	out = append(out, global...)
	out = append(out, scoped...)
	return out
}

// stripPrefixLayer rewrites the path mounted handlers see to be relative to
// the mount point. Requests whose path does not carry the prefix pass
// through unchanged; the query string is never touched.
func stripPrefixLayer(prefix engine.Template) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			stripped, ok := stripPrefix(req.URL.Path, prefix)
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			r2 := req.Clone(req.Context())
			r2.URL.Path = stripped
			if r2.URL.RawPath != "" {
				if raw, ok := stripPrefix(req.URL.RawPath, prefix); ok {
					r2.URL.RawPath = raw
				} else {
					// Let EscapedPath re-encode from Path.
					r2.URL.RawPath = ""
				}
			}
			next.ServeHTTP(w, r2)
		})
	}
}

// stripPrefix removes prefix's segments from the front of path. A literal
// prefix segment must match exactly; a capture consumes any one non-empty
// segment.
func stripPrefix(path string, prefix engine.Template) (string, bool) {
	rest := path
	for _, seg := range prefix.Segments() {
		if rest == "" || rest[0] != '/' {
			return "", false
		}
		rest = rest[1:]
		var part string
		if idx := strings.IndexByte(rest, '/'); idx < 0 {
			part, rest = rest, ""
		} else {
			part, rest = rest[:idx], rest[idx:]
		}
		switch seg.Kind {
		case engine.SegmentLiteral:
			if part != seg.Value {
				return "", false
			}
		case engine.SegmentCapture:
			if part == "" {
				return "", false
			}
		default:
			return "", false
		}
	}
	if rest == "" {
		return "/", true
	}
	return rest, true
}
