package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
)

// Claims are the signed contents of a session token: the subject member and a
// snapshot of their role at login time. The role is deliberately not re-checked
// against the store on every request; the accepted staleness window is the
// token lifetime.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// MemberID parses the token subject into a typed member ID.
func (c *Claims) MemberID() (domain.MemberID, error) {
	return domain.ParseMemberID(c.Subject)
}

// Service mints and validates session tokens. The signing key is process-wide
// configuration loaded once at startup; rotating it invalidates all outstanding
// tokens.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     "givebridge",
		ttl:        ttl,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for the given member. now is passed in so issuance and
// expiry share the caller's request-scoped clock.
func (s *Service) Issue(memberID domain.MemberID, role domain.Role, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// Verify parses and validates a raw token. Every failure mode - bad signature,
// wrong algorithm, malformed payload, expired - collapses into the single
// session-invalid code; the expired case is kept in the wrapped cause for
// server-side logs only.
func (s *Service) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeSessionInvalid, "session expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeSessionInvalid, "invalid session")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeSessionInvalid, "invalid session")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeSessionInvalid, "invalid session")
	}
	if !domain.Role(claims.Role).Valid() {
		return nil, dErrors.New(dErrors.CodeSessionInvalid, "invalid session")
	}
	return claims, nil
}
