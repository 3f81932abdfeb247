// Package server hosts the device pairing flow.
//
// # Pairing Wizard
//
// [Wizard] is an [http.Handler] that walks an operator through pairing in four requests:
//
//	GET  /                      form for the application client id and secret
//	POST /auth-request          redirect to the authorize endpoint
//	GET  /auth-response/?code=  exchange the code, list devices
//	POST /select-device         persist the chosen device
//
// Each step is accepted only in its own state; anything else is answered with 404 and leaves the
// state untouched. The OAuth state parameter is generated when the form is served and verified on
// the callback. When the last step completes, [Wizard.Done] is closed and [Wizard.Client] returns a
// ready [services.SpotifyService].
//
// # Sequential Listener
//
// [Serve] accepts one connection at a time, reads a single request with [http.ReadRequest], runs the
// handler against a buffered [http.ResponseWriter] and writes an HTTP/1.0 response with
// "Connection: close". The connection is closed on every path before the next Accept. Any
// [http.Handler] works, and the [Wizard] can equally be hosted by [http.Server].
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the two used by the pairing server.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
