package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"givebridge/internal/audit"
	"givebridge/internal/member/secrets"
	"givebridge/internal/member/store"
	"givebridge/internal/token"
	"givebridge/internal/token/revocation"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc    *Service
	store  *store.InMemory
	tokens *token.Service
	audits *audit.InMemoryStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	members := store.NewInMemory()
	tokens := token.NewService("test-signing-key", 5*time.Hour)
	audits := audit.NewInMemoryStore()
	base := append([]Option{WithLogger(testLogger())}, opts...)
	svc := NewService(members, tokens, secrets.NewHasher(bcrypt.MinCost), audit.NewService(audits), base...)
	return &fixture{svc: svc, store: members, tokens: tokens, audits: audits}
}

func TestSignupDefaultsToSupporter(t *testing.T) {
	f := newFixture(t)

	profile, err := f.svc.Signup(context.Background(), "Priya Sharma", "priya@example.org", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupporter, profile.Role)
	assert.True(t, profile.Approved)
}

func TestSignupAdminStartsUnapproved(t *testing.T) {
	f := newFixture(t)

	profile, err := f.svc.Signup(context.Background(), "Admin Person", "admin@example.org", "secret123", domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, profile.Approved)
}

func TestSignupRejectsEmptyPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), "Priya", "priya@example.org", "", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, "Priya Sharma", "priya@example.org", "secret123", "")
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, "Someone Else", "PRIYA@example.org", "other456", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestLoginReturnsVerifiableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.svc.Signup(ctx, "Priya Sharma", "priya@example.org", "secret123", "")
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "priya@example.org", "secret123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupporter, result.Role)
	assert.Equal(t, "Priya Sharma", result.Name)
	assert.Equal(t, 5*time.Hour, result.ExpiresIn)

	claims, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	subject, err := claims.MemberID()
	require.NoError(t, err)
	assert.Equal(t, profile.ID, subject)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, "Priya Sharma", "priya@example.org", "secret123", "")
	require.NoError(t, err)

	_, unknownErr := f.svc.Login(ctx, "nobody@example.org", "secret123")
	_, wrongErr := f.svc.Login(ctx, "priya@example.org", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.True(t, dErrors.HasCode(unknownErr, dErrors.CodeInvalidCredentials))
	assert.True(t, dErrors.HasCode(wrongErr, dErrors.CodeInvalidCredentials))
	assert.Equal(t, dErrors.MessageOf(unknownErr), dErrors.MessageOf(wrongErr))
}

func TestLoginBlocksUnapprovedAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, "Admin Person", "admin@example.org", "secret123", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "admin@example.org", "secret123")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePendingApproval))
}

func TestLoginSucceedsAfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.svc.Signup(ctx, "Admin Person", "admin@example.org", "secret123", domain.RoleAdmin)
	require.NoError(t, err)

	actor := domain.NewMemberID()
	_, err = f.svc.ApproveAdmin(requestcontext.WithMemberID(ctx, actor), profile.ID)
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "admin@example.org", "secret123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.Role)
}

func TestLogoutWithoutRevokerIsStateless(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Logout(context.Background()))
}

func TestLogoutRevokesTokenID(t *testing.T) {
	revocations := revocation.NewMemory()
	f := newFixture(t, WithRevoker(revocations))

	ctx := requestcontext.WithTokenID(context.Background(), "jti-123")
	require.NoError(t, f.svc.Logout(ctx))

	revoked, err := revocations.IsRevoked(context.Background(), "jti-123")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestProfileNotFound(t *testing.T) {
	f := newFixture(t)

	ctx := requestcontext.WithMemberID(context.Background(), domain.NewMemberID())
	_, err := f.svc.Profile(ctx)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestApproveAdminWritesAuditEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.svc.Signup(ctx, "Admin Person", "admin@example.org", "secret123", domain.RoleAdmin)
	require.NoError(t, err)

	actor := domain.NewMemberID()
	updated, err := f.svc.ApproveAdmin(requestcontext.WithMemberID(ctx, actor), profile.ID)
	require.NoError(t, err)
	assert.True(t, updated.Approved)

	entries := f.audits.All()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionApproveAdmin, entries[0].Action)
	assert.Equal(t, actor, entries[0].ActorID)
	assert.Equal(t, profile.ID.String(), entries[0].Target)
}

func TestApproveAdminTargetNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApproveAdmin(context.Background(), domain.NewMemberID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, f.audits.All(), "failed approvals must not be audited")
}

func TestListPendingAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, "Pending Admin", "pending@example.org", "secret123", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, "Supporter", "supporter@example.org", "secret123", "")
	require.NoError(t, err)

	pending, err := f.svc.ListPendingAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending@example.org", pending[0].Email)
}

func TestListSupportersFiltersByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, "Priya Sharma", "priya@example.org", "secret123", "")
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, "Arun Mehta", "arun@example.org", "secret123", "")
	require.NoError(t, err)

	got, err := f.svc.ListSupporters(ctx, "sharma")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "priya@example.org", got[0].Email)
}
