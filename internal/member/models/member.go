package models

import (
	"strings"
	"time"

	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
)

// Member is the aggregate root for a registered account.
//
// Invariants:
//   - Email is stored lower-cased and unique across the store
//   - SecretHash is a salted bcrypt hash; plaintext is never persisted
//   - Role is a member of the closed role set
//   - Admin accounts start unapproved; supporters and superadmins start approved
//   - RegisteredAt is immutable after construction
type Member struct {
	ID           domain.MemberID
	FullName     string
	Email        string
	SecretHash   string
	Role         domain.Role
	Approved     bool
	RegisteredAt time.Time
}

// NewMember constructs a member, normalizing the email and deriving the
// initial approval flag from the role. Accounts are never deleted, so the
// approval flag is the only mutable field after this point.
func NewMember(id domain.MemberID, fullName, email, secretHash string, role domain.Role, now time.Time) (*Member, error) {
	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)

	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "secret hash is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}

	return &Member{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		SecretHash:   secretHash,
		Role:         role,
		Approved:     role != domain.RoleAdmin,
		RegisteredAt: now,
	}, nil
}

// NormalizeEmail lower-cases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the externally visible shape of a member. No secret hash.
type Profile struct {
	ID           domain.MemberID `json:"id"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email"`
	Role         domain.Role     `json:"role"`
	Approved     bool            `json:"approved"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// Public returns the member's profile without the secret hash.
func (m *Member) Public() Profile {
	return Profile{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		Role:         m.Role,
		Approved:     m.Approved,
		RegisteredAt: m.RegisteredAt,
	}
}
