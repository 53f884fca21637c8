package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ChainOptions configures the middleware wrapped around the routes.
type ChainOptions struct {
	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string

	// TrustProxyHeaders replaces RemoteAddr with X-Forwarded-For, X-Real-IP
	// or True-Client-IP. Only enable it behind a proxy that overwrites them,
	// since the auth rate limit is keyed on RemoteAddr.
	TrustProxyHeaders bool
}

// Chain wraps h with request IDs, panic recovery, optional proxy address
// handling, optional CORS and security headers.
func Chain(h http.Handler, opts ChainOptions) http.Handler {
	h = SecurityHeaders(h)
	if len(opts.AllowedOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		})(h)
	}
	h = middleware.Recoverer(h)
	if opts.TrustProxyHeaders {
		h = middleware.RealIP(h)
	}
	return middleware.RequestID(h)
}
