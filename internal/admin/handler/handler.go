// Package handler exposes the administrative panel over HTTP under
// /admin-portal. Dashboard routes admit admins and superadmins; the approval
// workflow is superadmin-only.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	donationmodels "givebridge/internal/donation/models"
	donationservice "givebridge/internal/donation/service"
	membermodels "givebridge/internal/member/models"
	"givebridge/internal/platform/middleware"
	"givebridge/pkg/domain"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/platform/httputil"
	"givebridge/pkg/requestcontext"
)

// AccountService is the slice of the member module the admin panel uses.
type AccountService interface {
	ListSupporters(ctx context.Context, nameFilter string) ([]membermodels.Profile, error)
	ListPendingAdmins(ctx context.Context) ([]membermodels.Profile, error)
	ApproveAdmin(ctx context.Context, targetID domain.MemberID) (*membermodels.Profile, error)
}

// FinanceService is the slice of the donation module the admin panel uses.
type FinanceService interface {
	GlobalStats(ctx context.Context) (*donationservice.Stats, error)
	FinancialInsights(ctx context.Context) ([]donationmodels.DailyTotal, error)
	RegistrySnapshot(ctx context.Context) ([]donationservice.Record, error)
	DonorTotals(ctx context.Context) ([]donationservice.DonorSummary, error)
}

// Handler handles the /admin-portal endpoints.
type Handler struct {
	accounts    AccountService
	finance     FinanceService
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
	logger      *slog.Logger
}

// New creates a new admin portal Handler.
func New(accounts AccountService, finance FinanceService, verifier middleware.TokenVerifier, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		accounts:    accounts,
		finance:     finance,
		verifier:    verifier,
		revocations: revocations,
		logger:      logger,
	}
}

// Register mounts the admin portal routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin-portal", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.verifier, h.revocations, h.logger, domain.RoleAdmin, domain.RoleSuperadmin))
			r.Get("/stats", h.handleStats)
			r.Get("/users", h.handleListSupporters)
			r.Get("/insights", h.handleInsights)
			r.Get("/all-donations", h.handleAllDonations)
			r.Get("/export-donations", h.handleDonorTotals)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.verifier, h.revocations, h.logger, domain.RoleSuperadmin))
			r.Get("/pending-admins", h.handlePendingAdmins)
			r.Post("/approve-admin", h.handleApproveAdmin)
		})
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.finance.GlobalStats(ctx)
	if err != nil {
		h.logFailure(ctx, "stats lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleListSupporters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	supporters, err := h.accounts.ListSupporters(ctx, r.URL.Query().Get("search_name"))
	if err != nil {
		h.logFailure(ctx, "supporter listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, supporters)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	daily, err := h.finance.FinancialInsights(ctx)
	if err != nil {
		h.logFailure(ctx, "insights lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	if daily == nil {
		daily = []donationmodels.DailyTotal{}
	}
	httputil.WriteJSON(w, http.StatusOK, daily)
}

func (h *Handler) handleAllDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.finance.RegistrySnapshot(ctx)
	if err != nil {
		h.logFailure(ctx, "donation registry lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleDonorTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := h.finance.DonorTotals(ctx)
	if err != nil {
		h.logFailure(ctx, "donor totals lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, totals)
}

func (h *Handler) handlePendingAdmins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := h.accounts.ListPendingAdmins(ctx)
	if err != nil {
		h.logFailure(ctx, "pending admin listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pending)
}

type approveAdminRequest struct {
	TargetID string `json:"target_id"`
}

func (h *Handler) handleApproveAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req approveAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	targetID, err := domain.ParseMemberID(req.TargetID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid target id"))
		return
	}

	profile, err := h.accounts.ApproveAdmin(ctx, targetID)
	if err != nil {
		h.logFailure(ctx, "admin approval failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
