// Package chiengine adapts the chi v5 routing tree to the engine contract.
//
// Matching behavior, including the literal > capture > wildcard specificity
// order, is chi's own. The adapter adds the conflict rule chi lacks: two
// templates whose shapes are equal (identical once capture names are erased)
// match exactly the same paths and are rejected at insert time instead of
// silently overwriting one another.
package chiengine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vitalvas/hermod/engine"
)

// Engine builds matchers backed by chi's router tree.
type Engine struct{}

// New returns the chi-backed engine.
func New() *Engine { return &Engine{} }

// NewBuilder implements engine.Engine.
func (*Engine) NewBuilder() engine.Builder { return &builder{} }

type route struct {
	tpl engine.Template
	key engine.Key
}

type builder struct {
	routes []route
}

// Insert implements engine.Builder.
func (b *builder) Insert(tpl engine.Template, key engine.Key) error {
	shape := tpl.Shape()
	for _, r := range b.routes {
		if r.tpl.Shape() == shape {
			return &engine.ConflictError{Template: tpl.String(), Existing: r.tpl.String()}
		}
	}
	b.routes = append(b.routes, route{tpl: tpl, key: key})
	return nil
}

// Compile implements engine.Builder.
func (b *builder) Compile() (engine.Matcher, error) {
	m := &matcher{mux: chi.NewRouter()}
	m.mux.NotFound(func(http.ResponseWriter, *http.Request) {})
	m.mux.MethodNotAllowed(func(http.ResponseWriter, *http.Request) {})

	for _, r := range b.routes {
		if err := m.register(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type matcher struct {
	mux *chi.Mux
}

// register mounts one template into the mux, converting chi's panics on
// patterns its tree rejects into conflict errors.
func (m *matcher) register(r route) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &engine.ConflictError{Template: r.tpl.String(), Reason: fmt.Sprint(rec)}
		}
	}()

	m.mux.Handle(chiPattern(r.tpl), marker(r))
	return nil
}

// chiPattern translates a template into chi syntax: captures keep the {name}
// form, a wildcard capture becomes chi's trailing *.
func chiPattern(tpl engine.Template) string {
	var b strings.Builder
	for _, seg := range tpl.Segments() {
		b.WriteByte('/')
		switch seg.Kind {
		case engine.SegmentCapture:
			b.WriteString("{" + seg.Value + "}")
		case engine.SegmentWildcard:
			b.WriteByte('*')
		default:
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}

// carrierKey addresses the per-lookup result carrier in the synthetic
// request's context.
type carrierKey struct{}

type carrier struct {
	matched bool
	key     engine.Key
	params  engine.Params
}

// marker returns the handler registered for a template. It never writes a
// response; it records the match into the lookup's carrier, reading captures
// in the template's declaration order so positions are stable regardless of
// how chi accumulated them.
func marker(r route) http.Handler {
	names := r.tpl.CaptureNames()
	wildcard, _ := r.tpl.Wildcard()

	return http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		c, _ := req.Context().Value(carrierKey{}).(*carrier)
		if c == nil {
			return
		}
		c.matched = true
		c.key = r.key

		rctx := chi.RouteContext(req.Context())
		if rctx == nil || len(names) == 0 {
			return
		}
		c.params = make(engine.Params, 0, len(names))
		for _, name := range names {
			lookup := name
			if name == wildcard {
				lookup = "*"
			}
			c.params = append(c.params, engine.Param{Name: name, Value: rctx.URLParam(lookup)})
		}
	})
}

// Lookup implements engine.Matcher. The mux is driven with a synthetic GET
// request; every template is registered for all methods, so the method is
// irrelevant to the outcome.
func (m *matcher) Lookup(path string) (engine.Match, bool) {
	c := &carrier{}
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: path, RawPath: path},
	}
	req = req.WithContext(context.WithValue(context.Background(), carrierKey{}, c))

	m.mux.ServeHTTP(discard{}, req)

	if !c.matched {
		return engine.Match{}, false
	}
	return engine.Match{Key: c.key, Params: c.params}, true
}

// discard satisfies http.ResponseWriter for the synthetic lookup request.
type discard struct{}

func (discard) Header() http.Header { return http.Header{} }
func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) WriteHeader(int) {}
