package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givebridge/internal/audit"
	"givebridge/internal/donation/service"
	"givebridge/internal/donation/store"
	memberstore "givebridge/internal/member/store"
	"givebridge/internal/platform/middleware"
	"givebridge/internal/token"
	"givebridge/pkg/domain"
)

type env struct {
	router http.Handler
	tokens *token.Service
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewService("test-signing-key", time.Hour)
	finance := service.NewService(
		store.NewInMemory(),
		memberstore.NewInMemory(),
		audit.NewService(audit.NewInMemoryStore()),
		service.WithLogger(logger),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestTime)
	New(finance, tokens, nil, logger).Register(router)
	return &env{router: router, tokens: tokens}
}

func (e *env) tokenFor(t *testing.T, role domain.Role) string {
	t.Helper()
	signed, err := e.tokens.Issue(domain.NewMemberID(), role, time.Now())
	require.NoError(t, err)
	return signed
}

func (e *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestFinanceRoutesRequireSession(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 100}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/finance/my-donations", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	e := newTestEnv(t)
	sessionToken := e.tokenFor(t, domain.RoleSupporter)

	rec := e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 500}, sessionToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.Equal(t, float64(500), order["amount"])
	assert.Equal(t, "INR", order["currency"])
	assert.Equal(t, "Sandbox_Simulator", order["gateway"])
	assert.Contains(t, order["order_ref"], "TXN_SIM_")
}

func TestCreateOrderRejectsBadAmount(t *testing.T) {
	e := newTestEnv(t)
	sessionToken := e.tokenFor(t, domain.RoleSupporter)

	rec := e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 0}, sessionToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	e := newTestEnv(t)
	sessionToken := e.tokenFor(t, domain.RoleSupporter)

	rec := e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 250}, sessionToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))

	rec = e.do(t, http.MethodPost, "/finance/update-status", map[string]any{
		"order_id":         order["order_ref"],
		"is_success":       true,
		"gateway_response": map[string]string{"txn": "ok"},
	}, sessionToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Message string `json:"message"`
		Record  struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		} `json:"record"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Transaction record updated", body.Message)
	assert.Equal(t, "success", body.Record.Status)
	assert.Contains(t, body.Record.Notes, "Simulator Response: ")
}

func TestUpdateStatusWithoutPayloadNotesOfflineVerification(t *testing.T) {
	e := newTestEnv(t)
	sessionToken := e.tokenFor(t, domain.RoleSupporter)

	rec := e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 250}, sessionToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))

	rec = e.do(t, http.MethodPost, "/finance/update-status", map[string]any{
		"order_id":   order["order_ref"],
		"is_success": false,
	}, sessionToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Record struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		} `json:"record"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "failed", body.Record.Status)
	assert.Equal(t, `Simulator Response: "Verified_Offline"`, body.Record.Notes)
}

func TestUpdateStatusUnknownReference(t *testing.T) {
	e := newTestEnv(t)
	sessionToken := e.tokenFor(t, domain.RoleSupporter)

	rec := e.do(t, http.MethodPost, "/finance/update-status", map[string]any{
		"order_id":   "TXN_SIM_MISSING99",
		"is_success": true,
	}, sessionToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyDonations(t *testing.T) {
	e := newTestEnv(t)
	memberID := domain.NewMemberID()
	signed, err := e.tokens.Issue(memberID, domain.RoleSupporter, time.Now())
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/finance/my-donations", nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = e.do(t, http.MethodPost, "/finance/create-order", map[string]int{"amount": 100}, signed)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, "/finance/my-donations", nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, float64(100), history[0]["amount"])
	assert.Equal(t, "pending", history[0]["status"])
}
