package dispatch

import (
	"fmt"
	"net/http"
	"reflect"
)

// StateValidator is implemented by handlers that require the router's
// shared state. Compile calls ValidateState once per registration with the
// attached value, or nil when none was attached, and fails on error. The
// check runs against the handler as registered, before middleware wraps it.
type StateValidator interface {
	ValidateState(state any) error
}

func validateState(h http.Handler, state any) error {
	sv, ok := h.(StateValidator)
	if !ok {
		return nil
	}
	return sv.ValidateState(state)
}

// StateHandlerFunc adapts a handler function that receives the router's
// shared state alongside the request. The returned handler declares its
// requirement through StateValidator, so compiling a router without a value
// assignable to S fails at build time instead of serving zero values.
func StateHandlerFunc[S any](fn func(state S, w http.ResponseWriter, r *http.Request)) http.Handler {
	return stateHandler[S]{fn: fn}
}

type stateHandler[S any] struct {
	fn func(S, http.ResponseWriter, *http.Request)
}

func (h stateHandler[S]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	value, ok := StateFrom(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	state, ok := value.(S)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.fn(state, w, r)
}

func (stateHandler[S]) ValidateState(state any) error {
	if state == nil {
		return fmt.Errorf("handler requires shared state of type %s, none attached", reflect.TypeFor[S]())
	}
	if _, ok := state.(S); !ok {
		return fmt.Errorf("handler requires shared state of type %s, got %T", reflect.TypeFor[S](), state)
	}
	return nil
}
