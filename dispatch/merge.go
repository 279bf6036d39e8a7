package dispatch

// Merge moves every registration from other into r. Patterns new to r are
// renumbered into r's arena in their original order; registrations on a
// pattern r already has extend that entry's method map. A (method, pattern)
// pair present in both routers is a conflict, detected before anything is
// moved.
//
// Other's router-wide middleware travels with the moved registrations as
// route-scoped middleware, so a moved route keeps the layering it was built
// with while r's router-wide middleware wraps outermost. The same applies
// to other's fallback: r keeps its own when both routers configure one,
// which is a configuration error. Later changes to other do not affect r.
func (r *Router) Merge(other *Router) error {
	if other == nil {
		return nil
	}
	if other.err != nil {
		r.recordErr(other.err)
		return other.err
	}

	for _, e := range other.entries {
		id, ok := r.byPattern[e.pattern]
		if !ok {
			continue
		}
		existing := r.entries[id]
		for _, method := range e.methodsSorted() {
			if _, dup := existing.slots[method]; dup {
				err := &ConflictError{Pattern: e.pattern, Method: method}
				r.recordErr(err)
				return err
			}
		}
	}

	if other.fallback != nil && r.fallback != nil {
		err := &ConfigError{Reason: "both routers configure a fallback"}
		r.recordErr(err)
		return err
	}
	if other.stateSet && r.stateSet {
		err := &ConfigError{Reason: "both routers attach shared state"}
		r.recordErr(err)
		return err
	}

	for _, e := range other.entries {
		for _, method := range e.methodsSorted() {
			src := e.slots[method]
			moved := &slot{
				handler:      src.handler,
				middleware:   concatMiddleware(other.middleware, src.middleware),
				fallbackRole: src.fallbackRole,
			}
			if rt := r.addSlot(method, e.pattern, moved); rt.err != nil {
				return rt.err
			}
		}
	}

	if other.fallback != nil {
		r.fallback = wrap(other.fallback, other.middleware)
	}
	if other.stateSet {
		r.state = other.state
		r.stateSet = true
	}
	return nil
}

// concatMiddleware returns a fresh slice so moved slots never alias the
// source router's middleware list.
func concatMiddleware(outer, inner []Middleware) []Middleware {
	if len(outer) == 0 && len(inner) == 0 {
		return nil
	}
	out := make([]Middleware, 0, len(outer)+len(inner))
	out = append(out, outer...)
	out = append(out, inner...)
	return out
}
