package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ecoguardian/internal/apperror"
	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/service"
)

// AuthHandler serves password signup/login, logout, the current user and
// the optional GitHub OAuth flow. A successful login of either kind ends
// with the JWT stored in an HttpOnly cookie.
type AuthHandler struct {
	auth   *service.AuthService
	github auth.OAuthProvider // nil when GitHub login is not configured
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github auth.OAuthProvider,
	tokenTTL time.Duration,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		ttl:    tokenTTL,
		secure: secureCookies,
		logger: logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse is the public view of an account.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username}
}

// HandleSignup creates an account and logs it in.
//
// HTTP: POST /api/auth/signup
// REQUEST BODY: {"username": "alice", "password": "correct horse"}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.ttl, h.secure)
	writeJSON(w, http.StatusCreated, newUserResponse(res.User))
}

// HandleLogin checks credentials and sets the token cookie.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.ttl, h.secure)
	writeJSON(w, http.StatusOK, newUserResponse(res.User))
}

// HandleLogout deletes the token cookie. Tokens are stateless, so the JWT
// itself stays valid until it expires; without the cookie the browser
// simply stops sending it.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the logged-in user.
//
// HTTP: GET /api/auth/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// HandleGitHubLogin redirects to GitHub's consent page. A random state is
// stored in a short-lived cookie and checked on callback, which proves the
// callback belongs to a login this server started (CSRF protection).
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("auth provider", "github"))
		return
	}

	state := xid.New().String()
	auth.SetStateCookie(w, state, h.secure)
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow:
//
//  1. compare the state parameter with the state cookie
//  2. exchange the code for the GitHub profile
//  3. find or create the local account
//  4. set the token cookie and redirect to the app
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("auth provider", "github"))
		return
	}

	q := r.URL.Query()
	stateCookie, err := r.Cookie(auth.StateCookie)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	auth.ClearStateCookie(w)

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "GitHub authentication failed",
		})
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			http.Redirect(w, r, "/?auth=username_taken", http.StatusSeeOther)
			return
		}
		writeError(w, err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.ttl, h.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
