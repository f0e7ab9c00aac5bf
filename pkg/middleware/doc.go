// Package middleware provides net/http middleware for the sizewatch server.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span for every HTTP request, including the
// websocket upgrade, using the global tracer provider:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Request Logging
//
// Logger writes one slog record per request with method, path, status,
// duration and the chi request ID.
package middleware
