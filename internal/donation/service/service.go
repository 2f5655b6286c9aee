// Package service implements the donation lifecycle: order initiation against
// the sandbox gateway, settlement callbacks, donor history, and the financial
// aggregations behind the admin panel.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"givebridge/internal/audit"
	donationmetrics "givebridge/internal/donation/metrics"
	"givebridge/internal/donation/models"
	"givebridge/internal/donation/orderref"
	"givebridge/internal/donation/store"
	membermodels "givebridge/internal/member/models"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/platform/sentinel"
	"givebridge/pkg/requestcontext"
)

// Gateway identity reported on initiated orders. This build targets the
// sandbox simulator exclusively; a real gateway integration would replace
// these constants with a provider abstraction.
const (
	Currency = "INR"
	Gateway  = "Sandbox_Simulator"
)

// notePrefix marks settlement notes as simulator-originated.
const notePrefix = "Simulator Response: "

// AuditLog records sensitive administrative actions.
type AuditLog interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// MemberDirectory resolves donor identity for aggregation views. Backed by the
// member store; kept narrow so tests can stub it.
type MemberDirectory interface {
	FindByID(ctx context.Context, id domain.MemberID) (*membermodels.Member, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// Service orchestrates the donation lifecycle.
type Service struct {
	donations store.Store
	members   MemberDirectory
	audits    AuditLog
	logger    *slog.Logger
	metrics   *donationmetrics.Metrics
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *donationmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(donations store.Store, members MemberDirectory, audits AuditLog, opts ...Option) *Service {
	s := &Service{
		donations: donations,
		members:   members,
		audits:    audits,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Order is what the client needs to hand the payment simulator.
type Order struct {
	OrderRef string `json:"order_ref"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Gateway  string `json:"gateway"`
}

// Initiate creates a pending donation owned by the authenticated member and
// returns the order the client forwards to the simulator. The amount is
// validated here and immutable afterwards.
func (s *Service) Initiate(ctx context.Context, amount int64) (*Order, error) {
	ref, err := orderref.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create order")
	}

	donation, err := models.NewDonation(domain.NewDonationID(), requestcontext.MemberID(ctx), amount, ref, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	// A reference collision in a 36^9 space is a store anomaly, not a retry
	// case; it surfaces as an internal error like any other create failure.
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create order")
	}

	s.logger.InfoContext(ctx, "donation initiated",
		"donation_id", donation.ID.String(),
		"member_id", donation.MemberID.String(),
		"order_ref", donation.OrderRef,
		"amount", donation.Amount,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementInitiated()
	}

	return &Order{
		OrderRef: donation.OrderRef,
		Amount:   donation.Amount,
		Currency: Currency,
		Gateway:  Gateway,
	}, nil
}

// Settle applies a simulator callback to the donation identified by its order
// reference. The raw callback payload is preserved in the notes for later
// reconciliation. Settlement is last-writer-wins: a repeated or late callback
// overwrites the previous outcome rather than being rejected.
func (s *Service) Settle(ctx context.Context, orderRef string, isSuccess bool, rawPayload string) (*models.Donation, error) {
	if orderRef == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "order reference is required")
	}

	start := time.Now()
	donation, err := s.donations.Settle(ctx, orderRef, isSuccess, notePrefix+rawPayload)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "reference ID not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not update donation")
	}

	s.logger.InfoContext(ctx, "donation settled",
		"donation_id", donation.ID.String(),
		"order_ref", donation.OrderRef,
		"status", string(donation.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementSettled(string(donation.Status))
		s.metrics.ObserveSettleDuration(time.Since(start))
	}

	return donation, nil
}

// History returns the authenticated member's own donations in creation order.
func (s *Service) History(ctx context.Context) ([]*models.Donation, error) {
	donations, err := s.donations.ListByMember(ctx, requestcontext.MemberID(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load donations")
	}
	return donations, nil
}

// Stats is the public landing-page summary.
type Stats struct {
	TotalSupporters int64 `json:"total_supporters"`
	TotalRaised     int64 `json:"total_raised"`
}

// GlobalStats counts supporter accounts and sums successfully settled
// donations. Pending and failed amounts never contribute to the total.
func (s *Service) GlobalStats(ctx context.Context) (*Stats, error) {
	supporters, err := s.members.CountByRole(ctx, domain.RoleSupporter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load stats")
	}
	raised, err := s.donations.SumByStatus(ctx, models.StatusSuccess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load stats")
	}
	return &Stats{TotalSupporters: supporters, TotalRaised: raised}, nil
}

// FinancialInsights groups successful donations by UTC calendar day, ascending,
// and records an audit entry for the viewing administrator. The audit write is
// part of the operation: if it fails the insight is not served.
func (s *Service) FinancialInsights(ctx context.Context) ([]models.DailyTotal, error) {
	daily, err := s.donations.GroupByDay(ctx, models.StatusSuccess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load insights")
	}

	entry := audit.Entry{
		ActorID:   requestcontext.MemberID(ctx),
		Action:    audit.ActionViewFinancialInsights,
		Target:    "donations",
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.audits.Emit(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not record insight access")
	}

	return daily, nil
}

// DonorSummary is one row of the per-donor aggregation with identity resolved.
type DonorSummary struct {
	MemberID domain.MemberID `json:"member_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Total    int64           `json:"total"`
	Count    int64           `json:"count"`
}

// DonorTotals aggregates successful donations per donor, descending by amount
// raised, with donor identity resolved from the member directory. A donor whose
// account has since been removed still appears, anonymized.
func (s *Service) DonorTotals(ctx context.Context) ([]DonorSummary, error) {
	totals, err := s.donations.GroupByDonor(ctx, models.StatusSuccess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load donor totals")
	}

	out := make([]DonorSummary, 0, len(totals))
	for _, t := range totals {
		row := DonorSummary{
			MemberID: t.MemberID,
			Name:     "Anonymous",
			Email:    "N/A",
			Total:    t.Total,
			Count:    t.Count,
		}
		if name, email, ok := s.resolveDonor(ctx, t.MemberID); ok {
			row.Name = name
			row.Email = email
		}
		out = append(out, row)
	}
	return out, nil
}

// Record is one donation with donor identity attached, for the admin registry
// and CSV export.
type Record struct {
	Donation   *models.Donation `json:"donation"`
	DonorName  string           `json:"donor_name"`
	DonorEmail string           `json:"donor_email"`
}

// RegistrySnapshot returns every donation, newest first, with donor identity
// resolved for display and export.
func (s *Service) RegistrySnapshot(ctx context.Context) ([]Record, error) {
	donations, err := s.donations.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load donations")
	}

	// Donations cluster per member; cache lookups across the snapshot.
	type identity struct {
		name, email string
	}
	resolved := make(map[domain.MemberID]identity)

	out := make([]Record, 0, len(donations))
	for _, d := range donations {
		id, ok := resolved[d.MemberID]
		if !ok {
			id = identity{name: "Anonymous", email: "N/A"}
			if name, email, found := s.resolveDonor(ctx, d.MemberID); found {
				id = identity{name: name, email: email}
			}
			resolved[d.MemberID] = id
		}
		out = append(out, Record{Donation: d, DonorName: id.name, DonorEmail: id.email})
	}
	return out, nil
}

func (s *Service) resolveDonor(ctx context.Context, id domain.MemberID) (name, email string, ok bool) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "donor lookup failed",
				"member_id", id.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return "", "", false
	}
	return member.FullName, member.Email, true
}
