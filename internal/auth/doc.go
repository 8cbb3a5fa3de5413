// Package auth provides JWT verification and HTTP middleware for the
// gateway's API surface.
//
// Tokens are HS256 signed with a shared secret from configuration. The
// middleware accepts a standard Authorization bearer header, with a "token"
// query parameter fallback for WebSocket upgrade requests. When no secret is
// configured the middleware is a passthrough and every request is anonymous.
package auth
