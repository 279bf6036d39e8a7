// Package dispatch maps incoming HTTP requests to handlers through an
// explicit build step: routes are registered on a Router, the Router is
// compiled once, and the resulting CompiledRouter serves requests without
// further locking or mutation.
//
// URL matching itself is delegated to a pluggable engine (see the engine
// package); the default engine is backed by chi's radix trie. The dispatch
// layer owns everything around the match: method tables, middleware
// layering, fallback handling, parameter decoding, and shared state.
//
// # Patterns
//
// Patterns are absolute, slash-separated templates. A segment is either a
// literal, a capture, or (in final position) a wildcard:
//
//	/users
//	/users/{id}
//	/users/{id}/posts/{post}
//	/assets/{*path}
//
// A capture matches exactly one non-empty segment; a wildcard matches the
// whole remaining suffix. More specific patterns win: literals over
// captures, captures over wildcards, decided per segment by the engine.
// Capture names starting with "__" are reserved.
//
// # Router
//
// Register handlers during startup, then compile:
//
//	r := dispatch.NewRouter()
//	r.Get("/users/{id}", getUser)
//	r.Post("/users", createUser)
//	r.Handle("/healthz", healthHandler)
//
//	cr, err := r.Compile()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", cr)
//
// Registration never panics. Errors are recorded on the returned Route and
// on the Router, and the first of them fails Compile, so a misconfigured
// route set cannot start serving.
//
// Handle registers for every method at once; a concrete-method registration
// on the same pattern takes precedence at dispatch time. Methods are always
// matched exactly: a GET registration does not serve HEAD.
//
// # Dispatch Outcomes
//
// A request resolves to exactly one of three outcomes: a matched handler, a
// method-not-allowed rejection when other methods serve the path, or
// not-found. The Allow header of a method-not-allowed response lists every
// method any route serves the path under, sorted.
//
// Both rejection outcomes run the same fallback handler; RouteError tells
// them apart:
//
//	r.FallbackFunc(func(w http.ResponseWriter, req *http.Request) {
//	    if errors.Is(dispatch.RouteError(req), dispatch.ErrMethodNotAllowed) {
//	        http.Error(w, "wrong method", http.StatusMethodNotAllowed)
//	        return
//	    }
//	    http.Error(w, "no such page", http.StatusNotFound)
//	})
//
// Without a fallback the router writes plain 404 and 405 responses.
//
// # Parameters
//
// Handlers read captures through the request context. Values are
// percent-decoded; an undecodable value rejects the request at extraction
// time rather than at match time:
//
//	func getUser(w http.ResponseWriter, r *http.Request) {
//	    id, err := dispatch.ParamAs[int64](r, "id")
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusBadRequest)
//	        return
//	    }
//	    // ...
//	}
//
// MatchedPath returns the registered pattern that matched, placeholders
// intact, which keeps metric and trace labels low-cardinality:
//
//	pattern, _ := dispatch.MatchedPath(r) // "/users/{id}"
//
// # Middleware
//
// Middleware is a plain func(http.Handler) http.Handler. Router-wide
// middleware wraps every request including fallback handling; route-scoped
// middleware wraps only the handlers of one registration:
//
//	r.Use(requestLogging)
//	r.Get("/admin", adminHandler).Use(requireAdmin)
//
// Within each scope middleware runs in the order it was added, router-wide
// before route-scoped.
//
// # Merging and Mounting
//
// Merge combines two routers pattern by pattern; registering the same
// method on the same pattern in both is an error. Mount flattens a router
// under a path prefix and rewrites the paths its handlers observe:
//
//	api := dispatch.NewRouter()
//	api.Get("/users/{id}", getUser)
//
//	root := dispatch.NewRouter()
//	root.Mount("/api/v1", api)
//
// In both cases the moved routes keep the middleware layering they were
// built with.
//
// # Shared State
//
// A router carries at most one shared value, attached with WithState and
// read with StateFrom. StateHandlerFunc declares a typed requirement that
// Compile checks, so a missing or mistyped value is a build error:
//
//	r.Method(http.MethodGet, "/users/{id}", dispatch.StateHandlerFunc(
//	    func(db *sql.DB, w http.ResponseWriter, req *http.Request) {
//	        // ...
//	    }))
//	r.WithState(db)
//
// # Testing Handlers
//
// SetTestMatch and SetTestState inject a match or a state value into a
// request so handlers can be tested without building a router:
//
//	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
//	req, _ = dispatch.SetTestMatch(req, "/users/{id}", "id", "42")
package dispatch
