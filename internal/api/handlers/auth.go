package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/auth"
	"github.com/roamplan/server/internal/domain/users"
)

type AuthHandler struct {
	Users      *users.Service
	JWTManager *auth.JWTManager
	CookieName string
	Env        string
	validate   *validator.Validate
}

func NewAuthHandler(service *users.Service, jwtManager *auth.JWTManager, cookieName, env string) *AuthHandler {
	return &AuthHandler{
		Users:      service,
		JWTManager: jwtManager,
		CookieName: cookieName,
		Env:        env,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expiresAt"`
	User      userInfo `json:"user"`
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register handles POST /api/v1/auth/register and signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil || h.JWTManager == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env,
			problem.WithErrors(validationErrors(err)))
		return
	}

	user, err := h.Users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			problem.Write(w, r, http.StatusConflict, "https://roamplan.app/problems/conflict", "Email already registered", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}

	h.writeSession(w, r, user, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login.
// Issues a JWT both in the response body and as an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil || h.JWTManager == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}
	if req.Email == "" || req.Password == "" {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Email and password are required", nil, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, "https://roamplan.app/problems/unauthorized", "Invalid credentials", nil, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}

	h.writeSession(w, r, user, http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout by clearing the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me for the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	user, err := h.Users.GetByID(r.Context(), middleware.UserID(r))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusUnauthorized, "https://roamplan.app/problems/unauthorized", "Unknown user", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, userInfo{ID: user.ID, Email: user.Email, Name: user.Name})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, user users.User, status int) {
	token, err := h.JWTManager.Generate(user.ID, user.Email)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}

	expiresAt := time.Now().Add(h.JWTManager.Expiry())

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      userInfo{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// validationErrors flattens validator output into a field -> message map for
// the problem document.
func validationErrors(err error) map[string]interface{} {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
