// Package dispatchhandlers provides HTTP middleware for the dispatch
// router. Every middleware is a plain dispatch.Middleware and can be
// attached router-wide with Router.Use or per route with Route.Use.
//
// The observability middlewares label their output with the matched route
// pattern rather than the request path, so metric series, log fields, and
// span names stay bounded by the route table.
//
// # Recovery Middleware
//
// RecoveryMiddleware recovers from panics in downstream handlers, responds
// with 500 Internal Server Error, and optionally logs the recovered value.
// Panics with http.ErrAbortHandler are re-raised.
//
//	r.Use(dispatchhandlers.RecoveryMiddleware(dispatchhandlers.RecoveryConfig{
//	    LogFunc: func(req *http.Request, err any) {
//	        slog.Error("panic", "path", req.URL.Path, "err", err)
//	    },
//	}))
//
// # Request ID Middleware
//
// RequestIDMiddleware generates or propagates a request ID header and
// stores the ID in the request context.
//
//	r.Use(dispatchhandlers.RequestIDMiddleware(dispatchhandlers.RequestIDConfig{
//	    TrustIncoming: true,
//	}))
//
// # Logging Middleware
//
// LoggingMiddleware writes one structured log record per request with
// method, path, matched route, status, size, and duration.
//
//	r.Use(dispatchhandlers.LoggingMiddleware(dispatchhandlers.LoggingConfig{
//	    Logger: slog.Default(),
//	}))
//
// # Metrics Middleware
//
// MetricsMiddleware records a request counter and a duration histogram
// labeled by method, route, and status.
//
//	mw, err := dispatchhandlers.MetricsMiddleware(dispatchhandlers.MetricsConfig{
//	    Namespace: "myapp",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Tracing Middleware
//
// TracingMiddleware starts one OpenTelemetry server span per request, named
// "<method> <route>", using the global tracer provider.
//
//	r.Use(dispatchhandlers.TracingMiddleware(dispatchhandlers.TracingConfig{}))
//
// # CORS Method Middleware
//
// CORSMethodMiddleware sets the Access-Control-Allow-Methods header from
// the compiled router's route table. Because it needs the compiled router,
// it is attached to an outer handler rather than the router that is being
// compiled:
//
//	cr, _ := r.Compile()
//	handler := dispatchhandlers.CORSMethodMiddleware(cr)(cr)
//	http.ListenAndServe(":8080", handler)
//
// # Server Middleware
//
// ServerMiddleware sets the X-Server-Hostname response header, resolved
// once at construction from the config, an environment variable, or
// os.Hostname.
//
//	mw, err := dispatchhandlers.ServerMiddleware(dispatchhandlers.ServerConfig{
//	    HostnameEnv: []string{"POD_NAME", "HOSTNAME"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
package dispatchhandlers
