// Package handler exposes the donation lifecycle over HTTP under /finance.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givebridge/internal/donation/models"
	"givebridge/internal/donation/service"
	"givebridge/internal/platform/middleware"
	dErrors "givebridge/pkg/domain-errors"
	"givebridge/pkg/platform/httputil"
	"givebridge/pkg/requestcontext"
)

// Service defines the donation operations the transport layer needs.
type Service interface {
	Initiate(ctx context.Context, amount int64) (*service.Order, error)
	Settle(ctx context.Context, orderRef string, isSuccess bool, rawPayload string) (*models.Donation, error)
	History(ctx context.Context) ([]*models.Donation, error)
}

// Handler handles the /finance endpoints.
type Handler struct {
	donations   Service
	verifier    middleware.TokenVerifier
	revocations middleware.RevocationChecker
	logger      *slog.Logger
}

// New creates a new finance Handler.
func New(donations Service, verifier middleware.TokenVerifier, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		donations:   donations,
		verifier:    verifier,
		revocations: revocations,
		logger:      logger,
	}
}

// Register mounts the finance routes. Every route needs a valid session,
// including the settlement callback: the simulator runs client-side, so the
// donor's own token authenticates it.
func (h *Handler) Register(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier, h.revocations, h.logger))
		r.Post("/create-order", h.handleCreateOrder)
		r.Post("/update-status", h.handleUpdateStatus)
		r.Get("/my-donations", h.handleMyDonations)
	})
}

type createOrderRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	order, err := h.donations.Initiate(ctx, req.Amount)
	if err != nil {
		h.logFailure(ctx, "order creation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

type updateStatusRequest struct {
	OrderID         string          `json:"order_id"`
	IsSuccess       bool            `json:"is_success"`
	GatewayResponse json.RawMessage `json:"gateway_response"`
}

type updateStatusResponse struct {
	Message string           `json:"message"`
	Record  *models.Donation `json:"record"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// A callback without a gateway payload still settles; the notes then
	// record that the outcome was reported without evidence.
	payload := string(req.GatewayResponse)
	if payload == "" || payload == "null" {
		payload = `"Verified_Offline"`
	}

	record, err := h.donations.Settle(ctx, req.OrderID, req.IsSuccess, payload)
	if err != nil {
		h.logFailure(ctx, "settlement failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updateStatusResponse{
		Message: "Transaction record updated",
		Record:  record,
	})
}

func (h *Handler) handleMyDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, err := h.donations.History(ctx)
	if err != nil {
		h.logFailure(ctx, "history lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	if history == nil {
		history = []*models.Donation{}
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
