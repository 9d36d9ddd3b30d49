// Package server provides HTTP routing, middleware and the login callback receiver.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// [RequestLogger] tags every request with an ID and logs method, path, status and duration.
//
// # Callback Handler
//
// [CallbackHandler] receives the browser redirect that ends the external login. The enrichment backend performs the
// Spotify code exchange and sends the browser to /callback?spotify_user_id=<id>. The handler hands that identity to the
// CLI through a one-shot channel; the CLI then exchanges it for an access token and logs the session in.
//
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
