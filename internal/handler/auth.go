package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session_id"

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	auth         *service.AuthService
	sessionTTL   time.Duration
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, sessionTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, sessionTTL: sessionTTL, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

func (req *registerRequest) bindForm(v url.Values) {
	req.Name = v.Get("name")
	req.Email = v.Get("email")
	req.Password = v.Get("password")
	req.Region = v.Get("region")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *loginRequest) bindForm(v url.Values) {
	req.Username = v.Get("username")
	req.Password = v.Get("password")
}

// HandleRegister creates an account and logs it in.
// POST /register
// Request:  {"name":"...","email":"...","password":"...","region":"..."}
// Response: {"message":"Registration successful","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readRequest(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Region)
	if err != nil {
		h.writeAuthError(w, r, "register user", err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Registration successful",
		User:    toUserDTO(result.User),
	})
}

// HandleLogin verifies credentials and starts a session.
// POST /login
// Request:  {"username":"...","password":"..."}
// Response: {"message":"Login successful","user":{...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readRequest(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, r, "login user", err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    toUserDTO(result.User),
	})
}

// HandleLogout ends the current session, if any, and clears the cookie.
// POST /logout
// Response: {"message":"Logged out"}
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Warn("logout", "error", err, "request_id", middleware.GetReqID(r.Context()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

// writeAuthError answers every classified register/login failure with 400
// and its client message. Anything else is a 500.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		writeMessage(w, http.StatusBadRequest, de.Message)
		return
	}
	writeInternalError(w, r, action, err)
}
