// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getters live here so services can read the authenticated
// member, role, request ID, and request time without importing net/http. The
// authorization middleware sets these; tests inject them directly.
package requestcontext

import (
	"context"
	"time"

	"givebridge/pkg/domain"
)

type (
	memberIDKey    struct{}
	roleKey        struct{}
	tokenIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyMemberID    = memberIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyTokenID     = tokenIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// MemberID retrieves the authenticated member ID from the context.
// Returns the zero value if not set.
func MemberID(ctx context.Context) domain.MemberID {
	if id, ok := ctx.Value(ContextKeyMemberID).(domain.MemberID); ok {
		return id
	}
	return domain.MemberID{}
}

// WithMemberID injects an authenticated member ID into the context.
func WithMemberID(ctx context.Context, id domain.MemberID) context.Context {
	return context.WithValue(ctx, ContextKeyMemberID, id)
}

// Role retrieves the authenticated role from the context. Returns the empty
// role if not set.
func Role(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ContextKeyRole).(domain.Role); ok {
		return role
	}
	return ""
}

// WithRole injects the authenticated role into the context.
func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// TokenID retrieves the session token's unique ID (jti) from the context.
// Only set on authenticated requests; used by logout when revocation is enabled.
func TokenID(ctx context.Context) string {
	if jti, ok := ctx.Value(ContextKeyTokenID).(string); ok {
		return jti
	}
	return ""
}

// WithTokenID injects a session token ID into the context.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, ContextKeyTokenID, jti)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from the context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests that don't care.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that need deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
