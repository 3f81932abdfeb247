// package server contains the pairing wizard, its middleware and the sequential listener that hosts it
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewRouter returns a [BasicRouter] serving h behind the given middleware.
func NewRouter(h Handler, middleware ...Middleware) *BasicRouter {
	r := NewBasicRouter()
	r.Use(middleware...)
	r.Handler(h)
	return r
}
