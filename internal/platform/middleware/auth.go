package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"givebridge/internal/token"
	"givebridge/pkg/domain"
	"givebridge/pkg/requestcontext"
)

// TokenVerifier validates a raw session token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// RevocationChecker reports whether a token ID has been revoked. A nil checker
// disables the lookup entirely (the default deployment: logout is client-side
// only and tokens live until natural expiry).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth guards routes that need any valid session. A missing token is
// reported as "authentication required" (403), a malformed or expired one as
// "session expired" (401); the two stay distinct on the wire but neither says
// why the token failed. On success the resolved member ID, role, and token ID
// are attached to the request context.
func RequireAuth(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "auth check failed - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "unauthenticated", "Authentication required")
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				logger.WarnContext(ctx, "auth check failed - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "session_invalid", "Session expired")
				return
			}

			ctx, ok = withVerifiedClaims(ctx, w, claims, revocations, logger)
			if !ok {
				return
			}

			logger.InfoContext(ctx, "auth check passed",
				"member_id", requestcontext.MemberID(ctx).String(),
				"role", string(requestcontext.Role(ctx)),
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards routes that additionally demand one of the allowed roles.
// An empty allowed set means any authenticated role passes. This is not layered
// on RequireAuth; the two guards are chosen per route and report missing tokens
// differently ("access denied" here, 401).
func RequireRole(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "role check failed - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Access denied")
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				logger.WarnContext(ctx, "role check failed - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "session_invalid", "Invalid session")
				return
			}

			ctx, ok = withVerifiedClaims(ctx, w, claims, revocations, logger)
			if !ok {
				return
			}

			role := requestcontext.Role(ctx)
			if !role.In(allowed...) {
				logger.WarnContext(ctx, "role check failed - insufficient permissions",
					"member_id", requestcontext.MemberID(ctx).String(),
					"role", string(role),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "insufficient_permissions", "Insufficient permissions")
				return
			}

			logger.InfoContext(ctx, "role check passed",
				"member_id", requestcontext.MemberID(ctx).String(),
				"role", string(role),
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withVerifiedClaims resolves claims into context values, running the optional
// revocation check. Returns ok=false after writing a response.
func withVerifiedClaims(ctx context.Context, w http.ResponseWriter, claims *token.Claims, revocations RevocationChecker, logger *slog.Logger) (context.Context, bool) {
	if revocations != nil {
		revoked, err := revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.ErrorContext(ctx, "revocation check failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			writeAuthError(w, http.StatusInternalServerError, "internal", "Unable to validate session")
			return ctx, false
		}
		if revoked {
			logger.WarnContext(ctx, "auth check failed - token revoked",
				"request_id", requestcontext.RequestID(ctx),
			)
			writeAuthError(w, http.StatusUnauthorized, "session_invalid", "Session expired")
			return ctx, false
		}
	}

	memberID, err := claims.MemberID()
	if err != nil {
		logger.WarnContext(ctx, "auth check failed - malformed subject",
			"request_id", requestcontext.RequestID(ctx),
		)
		writeAuthError(w, http.StatusUnauthorized, "session_invalid", "Session expired")
		return ctx, false
	}

	ctx = requestcontext.WithMemberID(ctx, memberID)
	ctx = requestcontext.WithRole(ctx, domain.Role(claims.Role))
	ctx = requestcontext.WithTokenID(ctx, claims.ID)
	return ctx, true
}

func bearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`))
}
