package handler

import (
	"net/http"

	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. A nil
// authLimiter disables rate limiting of /register and /login.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	sessions *service.SessionManager,
	profiles *service.ProfileService,
	files domain.FileStore,
	authLimiter *service.TokenBucket,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, sessions.TTL(), cookieSecure)
	profileHandler := NewProfileHandler(profiles, files)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("POST /register", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /login", RateLimit(authLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /logout", authHandler.HandleLogout)

	mux.Handle("GET /profile", RequireSession(sessions, http.HandlerFunc(profileHandler.HandleProfile)))
	mux.Handle("POST /upload-profile-picture", RequireSession(sessions, http.HandlerFunc(profileHandler.HandleUpload)))

	mux.HandleFunc("GET /uploads/{name}", profileHandler.HandleServeUpload)
}
