// Package handler exposes the account lifecycle over HTTP under /auth.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givebridge/internal/member/models"
	"givebridge/internal/member/service"
	"givebridge/internal/platform/middleware"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/platform/httputil"
	"givebridge/pkg/requestcontext"
)

// Service defines the account operations the transport layer needs.
type Service interface {
	Signup(ctx context.Context, fullName, email, secret string, role domain.Role) (*models.Profile, error)
	Login(ctx context.Context, email, secret string) (*service.LoginResult, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
}

// Handler handles the /auth endpoints.
type Handler struct {
	accounts    Service
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
	logger      *slog.Logger
}

// New creates a new auth Handler.
func New(accounts Service, verifier middleware.TokenVerifier, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		accounts:    accounts,
		verifier:    verifier,
		revocations: revocations,
		logger:      logger,
	}
}

// Register mounts the auth routes. Signup, signin, and logout are public;
// profile requires a valid session.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/signin", h.handleSignin)
		r.Post("/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.verifier, h.revocations, h.logger))
			r.Get("/me", h.handleProfile)
		})
	})
}

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	role := domain.Role(req.Role)
	if req.Role != "" && !role.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown role"))
		return
	}

	profile, err := h.accounts.Signup(ctx, req.FullName, req.Email, req.Password, role)
	if err != nil {
		h.logFailure(ctx, "signup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logFailure(ctx, "signin failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signinResponse{
		Token:     result.Token,
		Role:      string(result.Role),
		Name:      result.Name,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
	})
}

// handleLogout always succeeds for the client: the response instructs it to
// discard its token. When server-side revocation is enabled and the request
// carries a still-valid token, its ID is blocked too; an absent or already
// expired token leaves nothing to revoke.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if raw := bearerToken(r); raw != "" {
		if claims, err := h.verifier.Verify(raw); err == nil {
			ctx = requestcontext.WithTokenID(ctx, claims.ID)
		}
	}

	if err := h.accounts.Logout(ctx); err != nil {
		h.logFailure(ctx, "logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.accounts.Profile(ctx)
	if err != nil {
		h.logFailure(ctx, "profile lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
