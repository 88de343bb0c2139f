// internal/api/handler/transfer.go
package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"remitflow-wallet/internal/api/types"
	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/service"
	"remitflow-wallet/internal/util"
)

// IdempotencyKeyHeader overrides the idempotency_key field of a transfer body.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransferHandler handles HTTP requests for the transfer engine.
type TransferHandler struct {
	service service.TransferService
	logger  *zap.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(svc service.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		service: svc,
		logger:  logger,
	}
}

// StageUpdateRequest is the body of a disbursement stage change.
type StageUpdateRequest struct {
	Stage string `json:"stage"`
}

// Transfer handles a wallet-to-wallet transfer.
// POST /transfers
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var intent domain.WalletTransferIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		respondWithError(w, h.logger, util.WrapError(util.KindInvalidInput, "malformed request body", err))
		return
	}
	intent.RequesterID = UserID(r.Context())
	intent.IPAddress = clientIP(r)
	intent.RequestID = middleware.GetReqID(r.Context())
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		intent.IdempotencyKey = key
	}

	result, err := h.service.Transfer(r.Context(), intent)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	writeJSON(w, createdOrReplayed(result), result)
}

// TransferByWorkerID handles a wallet transfer addressed by the receiver's worker ID.
// POST /transfers/by-worker-id
func (h *TransferHandler) TransferByWorkerID(w http.ResponseWriter, r *http.Request) {
	var intent domain.WorkerTransferIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		respondWithError(w, h.logger, util.WrapError(util.KindInvalidInput, "malformed request body", err))
		return
	}
	intent.RequesterID = UserID(r.Context())
	intent.IPAddress = clientIP(r)
	intent.RequestID = middleware.GetReqID(r.Context())
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		intent.IdempotencyKey = key
	}

	result, err := h.service.TransferByWorkerID(r.Context(), intent)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	writeJSON(w, createdOrReplayed(result), result)
}

// TransferToNonWallet handles a payout to a recipient without a wallet.
// POST /transfers/non-wallet
func (h *TransferHandler) TransferToNonWallet(w http.ResponseWriter, r *http.Request) {
	var intent domain.NonWalletTransferIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		respondWithError(w, h.logger, util.WrapError(util.KindInvalidInput, "malformed request body", err))
		return
	}
	intent.RequesterID = UserID(r.Context())
	intent.IPAddress = clientIP(r)
	intent.RequestID = middleware.GetReqID(r.Context())
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		intent.IdempotencyKey = key
	}
	intent.Recipient.Country = strings.ToUpper(intent.Recipient.Country)

	result, err := h.service.TransferToNonWallet(r.Context(), intent)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	writeJSON(w, createdOrReplayed(result), result)
}

// GetStatus returns one transaction sent by the caller.
// GET /transfers/{transactionID}
func (h *TransferHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := h.pathID(w, r, "transactionID")
	if !ok {
		return
	}

	result, err := h.service.GetStatus(r.Context(), UserID(r.Context()), transactionID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateDisbursementStage advances the payout stage of a non-wallet transfer.
// PATCH /transfers/{transactionID}/disbursement
func (h *TransferHandler) UpdateDisbursementStage(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := h.pathID(w, r, "transactionID")
	if !ok {
		return
	}

	var req StageUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.WrapError(util.KindInvalidInput, "malformed request body", err))
		return
	}
	stage := domain.DisbursementStage(strings.ToUpper(strings.TrimSpace(req.Stage)))

	result, err := h.service.UpdateDisbursementStage(r.Context(), UserID(r.Context()), transactionID, stage, clientIP(r))
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTransactions returns a page of an account's history, newest first.
// GET /accounts/{accountID}/transactions
func (h *TransferHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}
	limit, offset = service.PageBounds(limit, offset)

	transactions, total, err := h.service.ListTransactions(r.Context(), UserID(r.Context()), accountID, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, types.NewPaginatedResponse(transactions, limit, offset, total))
}

func (h *TransferHandler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, h.logger, util.NewError(util.KindInvalidInput, "invalid "+param))
		return 0, false
	}
	return id, true
}

func createdOrReplayed(result *domain.TransferResult) int {
	if result.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

// clientIP returns the address set by middleware.RealIP without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
