package store

import (
	"context"

	"givebridge/internal/donation/models"
	"givebridge/pkg/domain"
)

// Store is the donation ledger contract. Implementations return sentinel
// errors: ErrAlreadyUsed for a duplicate order reference, ErrNotFound for a
// missing one. Aggregation ordering is normative: by-day ascending, by-donor
// descending by total.
type Store interface {
	Create(ctx context.Context, donation *models.Donation) error
	FindByOrderRef(ctx context.Context, orderRef string) (*models.Donation, error)

	// Settle performs the find-and-update as one atomic operation against the
	// backing store and returns the updated record. Under concurrent
	// settlements of the same reference the last writer wins; a torn write is
	// never acceptable.
	Settle(ctx context.Context, orderRef string, isSuccess bool, notes string) (*models.Donation, error)

	// ListByMember returns the member's donations in storage (insertion) order.
	ListByMember(ctx context.Context, memberID domain.MemberID) ([]*models.Donation, error)

	// ListAll returns every donation, newest first.
	ListAll(ctx context.Context) ([]*models.Donation, error)

	// SumByStatus totals amounts over records with the given status.
	SumByStatus(ctx context.Context, status models.Status) (int64, error)

	// GroupByDay buckets records with the given status by UTC calendar day,
	// ascending.
	GroupByDay(ctx context.Context, status models.Status) ([]models.DailyTotal, error)

	// GroupByDonor buckets records with the given status by owning member,
	// descending by total.
	GroupByDonor(ctx context.Context, status models.Status) ([]models.DonorTotal, error)
}
