package store

import (
	"context"

	"givebridge/internal/member/models"
	"givebridge/pkg/domain"
)

// Store is the credential store contract. Implementations return sentinel
// errors (pkg/platform/sentinel): ErrAlreadyUsed for a duplicate email,
// ErrNotFound for missing members. Email lookups are case-insensitive; every
// implementation normalizes to lower case on write.
type Store interface {
	Create(ctx context.Context, member *models.Member) error
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	FindByID(ctx context.Context, id domain.MemberID) (*models.Member, error)

	// SetApproved flips the approval flag as one atomic find-and-update and
	// returns the updated member.
	SetApproved(ctx context.Context, id domain.MemberID, approved bool) (*models.Member, error)

	// ListPendingAdmins returns admin-role members awaiting approval.
	ListPendingAdmins(ctx context.Context) ([]*models.Member, error)

	// ListByRole returns members with the given role, optionally filtered by a
	// case-insensitive name substring.
	ListByRole(ctx context.Context, role domain.Role, nameFilter string) ([]*models.Member, error)

	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}
