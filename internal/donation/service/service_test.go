package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givebridge/internal/audit"
	"givebridge/internal/donation/models"
	"givebridge/internal/donation/orderref"
	"givebridge/internal/donation/store"
	membermodels "givebridge/internal/member/models"
	memberstore "givebridge/internal/member/store"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc       *Service
	donations *store.InMemory
	members   *memberstore.InMemory
	audits    *audit.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	donations := store.NewInMemory()
	members := memberstore.NewInMemory()
	audits := audit.NewInMemoryStore()
	svc := NewService(donations, members, audit.NewService(audits), WithLogger(testLogger()))
	return &fixture{svc: svc, donations: donations, members: members, audits: audits}
}

func (f *fixture) addMember(t *testing.T, name, email string, role domain.Role) domain.MemberID {
	t.Helper()
	m, err := membermodels.NewMember(domain.NewMemberID(), name, email, "hash", role, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.members.Create(context.Background(), m))
	return m.ID
}

func (f *fixture) initiateAs(t *testing.T, owner domain.MemberID, amount int64) *Order {
	t.Helper()
	ctx := requestcontext.WithMemberID(context.Background(), owner)
	order, err := f.svc.Initiate(ctx, amount)
	require.NoError(t, err)
	return order
}

func TestInitiate(t *testing.T) {
	f := newFixture(t)
	owner := f.addMember(t, "Priya Sharma", "priya@example.org", domain.RoleSupporter)

	order := f.initiateAs(t, owner, 500)
	assert.True(t, strings.HasPrefix(order.OrderRef, orderref.Prefix))
	assert.Equal(t, int64(500), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "Sandbox_Simulator", order.Gateway)

	stored, err := f.donations.FindByOrderRef(context.Background(), order.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, owner, stored.MemberID)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestInitiateRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	ctx := requestcontext.WithMemberID(context.Background(), domain.NewMemberID())

	for _, amount := range []int64{0, -50} {
		_, err := f.svc.Initiate(ctx, amount)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestInitiateRequiresActingMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Initiate(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSettlePrefixesNotes(t *testing.T) {
	f := newFixture(t)
	owner := domain.NewMemberID()
	order := f.initiateAs(t, owner, 100)

	settled, err := f.svc.Settle(context.Background(), order.OrderRef, true, `{"txn":"ok"}`)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, settled.Status)
	assert.Equal(t, `Simulator Response: {"txn":"ok"}`, settled.Notes)
}

func TestSettleUnknownReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Settle(context.Background(), "TXN_SIM_MISSING99", true, "{}")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSettleRequiresReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Settle(context.Background(), "", true, "{}")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestSettleLastWriterWins(t *testing.T) {
	f := newFixture(t)
	order := f.initiateAs(t, domain.NewMemberID(), 100)
	ctx := context.Background()

	_, err := f.svc.Settle(ctx, order.OrderRef, true, `"first"`)
	require.NoError(t, err)
	settled, err := f.svc.Settle(ctx, order.OrderRef, false, `"second"`)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, settled.Status)
	assert.Equal(t, `Simulator Response: "second"`, settled.Notes)
}

func TestHistoryReturnsOwnDonationsOnly(t *testing.T) {
	f := newFixture(t)
	alice := domain.NewMemberID()
	bob := domain.NewMemberID()

	mine := f.initiateAs(t, alice, 100)
	f.initiateAs(t, bob, 200)

	history, err := f.svc.History(requestcontext.WithMemberID(context.Background(), alice))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, mine.OrderRef, history[0].OrderRef)
}

func TestGlobalStatsCountsOnlySuccess(t *testing.T) {
	f := newFixture(t)
	supporter := f.addMember(t, "Priya Sharma", "priya@example.org", domain.RoleSupporter)
	f.addMember(t, "Arun Mehta", "arun@example.org", domain.RoleSupporter)
	f.addMember(t, "Admin Person", "admin@example.org", domain.RoleAdmin)
	ctx := context.Background()

	pending := f.initiateAs(t, supporter, 100)
	failed := f.initiateAs(t, supporter, 50)
	success := f.initiateAs(t, supporter, 200)
	_ = pending
	_, err := f.svc.Settle(ctx, failed.OrderRef, false, "{}")
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, success.OrderRef, true, "{}")
	require.NoError(t, err)

	stats, err := f.svc.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSupporters)
	assert.Equal(t, int64(200), stats.TotalRaised)
}

func TestFinancialInsightsWritesAuditEntry(t *testing.T) {
	f := newFixture(t)
	owner := domain.NewMemberID()
	ctx := context.Background()

	// Both donations pinned to the same UTC day.
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	pinned := requestcontext.WithTime(requestcontext.WithMemberID(ctx, owner), day)
	first, err := f.svc.Initiate(pinned, 100)
	require.NoError(t, err)
	second, err := f.svc.Initiate(pinned, 150)
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, first.OrderRef, true, "{}")
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, second.OrderRef, true, "{}")
	require.NoError(t, err)

	viewer := domain.NewMemberID()
	daily, err := f.svc.FinancialInsights(requestcontext.WithMemberID(ctx, viewer))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, int64(250), daily[0].Total)
	assert.Equal(t, int64(2), daily[0].Count)

	entries := f.audits.All()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionViewFinancialInsights, entries[0].Action)
	assert.Equal(t, viewer, entries[0].ActorID)
}

func TestDonorTotalsResolvesIdentity(t *testing.T) {
	f := newFixture(t)
	known := f.addMember(t, "Priya Sharma", "priya@example.org", domain.RoleSupporter)
	ghost := domain.NewMemberID()
	ctx := context.Background()

	a := f.initiateAs(t, known, 100)
	b := f.initiateAs(t, known, 300)
	c := f.initiateAs(t, ghost, 900)
	for _, order := range []*Order{a, b, c} {
		_, err := f.svc.Settle(ctx, order.OrderRef, true, "{}")
		require.NoError(t, err)
	}

	totals, err := f.svc.DonorTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, ghost, totals[0].MemberID)
	assert.Equal(t, "Anonymous", totals[0].Name)
	assert.Equal(t, "N/A", totals[0].Email)
	assert.Equal(t, int64(900), totals[0].Total)

	assert.Equal(t, known, totals[1].MemberID)
	assert.Equal(t, "Priya Sharma", totals[1].Name)
	assert.Equal(t, "priya@example.org", totals[1].Email)
	assert.Equal(t, int64(400), totals[1].Total)
	assert.Equal(t, int64(2), totals[1].Count)
}

func TestRegistrySnapshotJoinsDonorIdentity(t *testing.T) {
	f := newFixture(t)
	known := f.addMember(t, "Priya Sharma", "priya@example.org", domain.RoleSupporter)
	ghost := domain.NewMemberID()

	f.initiateAs(t, known, 100)
	f.initiateAs(t, ghost, 200)

	records, err := f.svc.RegistrySnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first: the ghost's donation was created last.
	assert.Equal(t, ghost, records[0].Donation.MemberID)
	assert.Equal(t, "Anonymous", records[0].DonorName)
	assert.Equal(t, "N/A", records[0].DonorEmail)

	assert.Equal(t, known, records[1].Donation.MemberID)
	assert.Equal(t, "Priya Sharma", records[1].DonorName)
	assert.Equal(t, "priya@example.org", records[1].DonorEmail)
}
