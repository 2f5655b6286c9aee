// Package service implements the account lifecycle: signup, login, logout,
// profile lookup, and the superadmin approval workflow for admin accounts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"givebridge/internal/audit"
	membermetrics "givebridge/internal/member/metrics"
	"givebridge/internal/member/models"
	"givebridge/internal/member/secrets"
	"givebridge/internal/member/store"
	"givebridge/internal/token"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/platform/sentinel"
	"givebridge/pkg/requestcontext"
)

// AuditLog records sensitive administrative actions.
type AuditLog interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// TokenRevoker ends a session server-side. Optional; when nil, logout only
// instructs the client to discard its token.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service orchestrates the member account lifecycle.
type Service struct {
	members store.Store
	tokens  *token.Service
	hasher  *secrets.Hasher
	audits  AuditLog
	logger  *slog.Logger
	metrics *membermetrics.Metrics
	revoker TokenRevoker
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *membermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRevoker(r TokenRevoker) Option {
	return func(s *Service) { s.revoker = r }
}

func NewService(members store.Store, tokens *token.Service, hasher *secrets.Hasher, audits AuditLog, opts ...Option) *Service {
	s := &Service{
		members: members,
		tokens:  tokens,
		hasher:  hasher,
		audits:  audits,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new account. Admin-role signups start unapproved and
// cannot log in until a superadmin approves them. The caller gets a profile
// back, never a token; signup does not log the member in.
func (s *Service) Signup(ctx context.Context, fullName, email, secret string, role domain.Role) (*models.Profile, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if role == "" {
		role = domain.RoleSupporter
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	member, err := models.NewMember(domain.NewMemberID(), fullName, email, hash, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "this email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create account")
	}

	s.logger.InfoContext(ctx, "member registered",
		"member_id", member.ID.String(),
		"role", string(member.Role),
		"approved", member.Approved,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}

	profile := member.Public()
	return &profile, nil
}

// LoginResult carries what a successful login returns to the transport layer.
type LoginResult struct {
	Token     string
	Role      domain.Role
	Name      string
	ExpiresIn time.Duration
}

// Login authenticates by email and secret. Unknown email and wrong password
// collapse into the same invalid-credentials error so callers cannot probe for
// registered addresses. A correct login on an unapproved admin account is
// blocked with a distinct pending-approval error.
func (s *Service) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.noteLoginFailure(ctx, "unknown email")
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}

	if err := s.hasher.Verify(secret, member.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			s.noteLoginFailure(ctx, "secret mismatch")
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}

	if member.Role == domain.RoleAdmin && !member.Approved {
		s.logger.WarnContext(ctx, "login blocked - admin pending approval",
			"member_id", member.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodePendingApproval, "admin account pending approval by superadmin")
	}

	signed, err := s.tokens.Issue(member.ID, member.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login successful",
		"member_id", member.ID.String(),
		"role", string(member.Role),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &LoginResult{
		Token:     signed,
		Role:      member.Role,
		Name:      member.FullName,
		ExpiresIn: s.tokens.TTL(),
	}, nil
}

// Logout ends the session. Without a configured revoker this is stateless: the
// transport layer tells the client to discard the token and it stays valid
// until natural expiry. With a revoker the token ID is blocked server-side for
// the full token lifetime.
func (s *Service) Logout(ctx context.Context) error {
	if s.revoker == nil {
		return nil
	}
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not end session")
	}
	return nil
}

// Profile returns the acting member's public fields. The subject may have been
// removed between token issuance and use; that surfaces as not-found.
func (s *Service) Profile(ctx context.Context) (*models.Profile, error) {
	memberID := requestcontext.MemberID(ctx)
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load profile")
	}
	profile := member.Public()
	return &profile, nil
}

// ListPendingAdmins returns admin accounts awaiting approval. Route-level
// authorization restricts this to superadmins.
func (s *Service) ListPendingAdmins(ctx context.Context) ([]models.Profile, error) {
	pending, err := s.members.ListPendingAdmins(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list pending admins")
	}
	return toProfiles(pending), nil
}

// ApproveAdmin flips the target's approval flag and records an audit entry for
// the acting superadmin. The find-and-update runs atomically in the store.
func (s *Service) ApproveAdmin(ctx context.Context, targetID domain.MemberID) (*models.Profile, error) {
	member, err := s.members.SetApproved(ctx, targetID, true)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "target member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not approve admin")
	}

	entry := audit.Entry{
		ActorID:   requestcontext.MemberID(ctx),
		Action:    audit.ActionApproveAdmin,
		Target:    targetID.String(),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.audits.Emit(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not record approval")
	}

	s.logger.InfoContext(ctx, "admin approved",
		"actor_id", entry.ActorID.String(),
		"target_id", targetID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementAdminApproved()
	}

	profile := member.Public()
	return &profile, nil
}

// ListSupporters returns supporter accounts for the admin panel, optionally
// filtered by a case-insensitive name substring.
func (s *Service) ListSupporters(ctx context.Context, nameFilter string) ([]models.Profile, error) {
	supporters, err := s.members.ListByRole(ctx, domain.RoleSupporter, nameFilter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list supporters")
	}
	return toProfiles(supporters), nil
}

func (s *Service) noteLoginFailure(ctx context.Context, reason string) {
	s.logger.WarnContext(ctx, "login failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementLoginFailure()
	}
}

func toProfiles(members []*models.Member) []models.Profile {
	out := make([]models.Profile, 0, len(members))
	for _, m := range members {
		out = append(out, m.Public())
	}
	return out
}
