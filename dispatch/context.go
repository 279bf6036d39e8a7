package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitalvas/hermod/engine"
)

// routeContextKey is the single context key the dispatcher uses.
type routeContextKey struct{}

// routeContext is the per-request payload: at most one match, the dispatch
// outcome when there is none, and the shared state value.
type routeContext struct {
	match    *MatchResult
	err      error
	state    any
	hasState bool
}

func contextPayload(r *http.Request) *routeContext {
	rc, _ := r.Context().Value(routeContextKey{}).(*routeContext)
	return rc
}

// CurrentMatch returns the match the dispatcher resolved for this request.
// Requests served by the fallback, or by a handler a mounted fallback
// registered, carry no match.
func CurrentMatch(r *http.Request) (*MatchResult, bool) {
	rc := contextPayload(r)
	if rc == nil || rc.match == nil {
		return nil, false
	}
	return rc.match, true
}

// RouteError reports why a request went unmatched: ErrNotFound, a
// *MethodNotAllowedError, or nil for a matched request. Fallback handlers
// use it to tell the two outcomes apart.
func RouteError(r *http.Request) error {
	rc := contextPayload(r)
	if rc == nil {
		return nil
	}
	return rc.err
}

// StateFrom returns the shared value the serving router attached with
// WithState. The second return is false when no state was attached or the
// request never went through a CompiledRouter.
func StateFrom(r *http.Request) (any, bool) {
	rc := contextPayload(r)
	if rc == nil || !rc.hasState {
		return nil, false
	}
	return rc.state, true
}

// SetTestMatch returns a shallow copy of r whose context carries a match
// for pattern with the given captures, listed as alternating name and value
// pairs. It lets handlers and extractors be tested without building a
// router.
func SetTestMatch(r *http.Request, pattern string, pairs ...string) (*http.Request, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("number of parameters must be multiple of 2, got %v", len(pairs))
	}
	params := make(engine.Params, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		params = append(params, engine.Param{Name: pairs[i], Value: pairs[i+1]})
	}
	rc := clonePayload(r)
	rc.match = &MatchResult{EntryID: -1, Pattern: pattern, params: params}
	rc.err = nil
	return withPayload(r, rc), nil
}

// SetTestState returns a shallow copy of r whose context carries state as
// the shared value StateFrom reads.
func SetTestState(r *http.Request, state any) *http.Request {
	rc := clonePayload(r)
	rc.state = state
	rc.hasState = true
	return withPayload(r, rc)
}

func clonePayload(r *http.Request) *routeContext {
	if rc := contextPayload(r); rc != nil {
		cp := *rc
		return &cp
	}
	return &routeContext{}
}

func withPayload(r *http.Request, rc *routeContext) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), routeContextKey{}, rc))
}
