package handler

import (
	"log/slog"
	"net/http"

	"github.com/artho-wallet-ledger/internal/api_gateway/middleware"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	ledgerservice "github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler exposes the money-moving operations of the ledger engine
type WalletHandler struct {
	transfers ledgerservice.TransferProcessor
	cashIn    ledgerservice.CashInWorkflow
	cashOut   ledgerservice.CashOutProcessor
	history   ledgerservice.HistoryReader
	logger    *slog.Logger
}

func NewWalletHandler(logger *slog.Logger, engine *ledgerservice.Engine) *WalletHandler {
	return &WalletHandler{
		transfers: engine.Transfers,
		cashIn:    engine.CashIn,
		cashOut:   engine.CashOut,
		history:   engine.History,
		logger:    logger,
	}
}

// Send handles POST /transfers
func (h *WalletHandler) Send(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondInvalidRequest(c, err)
		return
	}

	entry, err := h.transfers.Send(c.Request.Context(), &ledgerservice.SendRequest{
		SenderID:       callerID,
		ReceiverMobile: req.ReceiverMobile,
		Amount:         req.Amount,
		Pin:            req.Pin,
		IdempotencyKey: idempotencyKey(c),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.fail(c, "send", err)
		return
	}
	RespondOK(c, mapEntryToResponse(entry))
}

// SubmitCashIn handles POST /cash-in-requests
func (h *WalletHandler) SubmitCashIn(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	var req CashInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondInvalidRequest(c, err)
		return
	}

	entry, err := h.cashIn.SubmitCashInRequest(c.Request.Context(), &ledgerservice.SubmitCashInRequest{
		CallerID:      callerID,
		AgentMobile:   req.AgentMobile,
		UserMobile:    req.UserMobile,
		Amount:        req.Amount,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.fail(c, "submitCashInRequest", err)
		return
	}
	RespondOK(c, mapEntryToResponse(entry))
}

// ListCashIn handles GET /agents/:mobile/cash-in-requests
func (h *WalletHandler) ListCashIn(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}

	entries, err := h.cashIn.ListCashInRequests(c.Request.Context(), &ledgerservice.ListCashInRequests{
		CallerID:    callerID,
		AgentMobile: c.Param("mobile"),
	})
	if err != nil {
		h.fail(c, "listCashInRequests", err)
		return
	}
	RespondOK(c, mapEntriesToResponse(entries))
}

// AcceptCashIn handles POST /cash-in-requests/accept
func (h *WalletHandler) AcceptCashIn(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	var req AcceptCashInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondInvalidRequest(c, err)
		return
	}
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		RespondInvalidRequest(c, err)
		return
	}

	entry, err := h.cashIn.AcceptCashInRequest(c.Request.Context(), &ledgerservice.AcceptCashInRequest{
		CallerID:       callerID,
		RequestID:      requestID,
		AgentMobile:    req.AgentMobile,
		UserMobile:     req.UserMobile,
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.fail(c, "acceptCashInRequest", err)
		return
	}
	RespondOK(c, mapEntryToResponse(entry))
}

// CashOut handles POST /cash-outs
func (h *WalletHandler) CashOut(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}
	var req CashOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondInvalidRequest(c, err)
		return
	}

	entry, err := h.cashOut.CashOut(c.Request.Context(), &ledgerservice.CashOutRequest{
		CallerID:       callerID,
		UserMobile:     req.UserMobile,
		AgentMobile:    req.AgentMobile,
		Amount:         req.Amount,
		Pin:            req.Pin,
		IdempotencyKey: idempotencyKey(c),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.fail(c, "cashOut", err)
		return
	}
	RespondOK(c, mapEntryToResponse(entry))
}

// History handles GET /accounts/:mobile/history
func (h *WalletHandler) History(c *gin.Context) {
	callerID, ok := h.caller(c)
	if !ok {
		return
	}

	entries, err := h.history.History(c.Request.Context(), &ledgerservice.HistoryRequest{
		CallerID: callerID,
		Mobile:   c.Param("mobile"),
	})
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	RespondWithData(c, http.StatusOK, mapEntriesToResponse(entries))
}

func (h *WalletHandler) caller(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CallerID(c)
	if !ok {
		RespondWalletError(c, shared.ErrUnauthorized)
	}
	return id, ok
}

func (h *WalletHandler) fail(c *gin.Context, op string, err error) {
	switch shared.KindOf(err) {
	case shared.ErrorKindInternal, shared.ErrorKindOutcomeUnknown:
		h.logger.Error("Wallet operation failed",
			"operation", op, "correlation_id", middleware.GetCorrelationID(c), "error", err)
	}
	RespondWalletError(c, err)
}

func idempotencyKey(c *gin.Context) string {
	return c.GetHeader(middleware.IdempotencyKeyHeader)
}
