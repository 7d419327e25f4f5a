package handler

import (
	"log/slog"
	"net/http"

	"github.com/artho-wallet-ledger/internal/api_gateway/middleware"
	"github.com/artho-wallet-ledger/internal/api_gateway/service"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the caller's own account and statement
type AccountHandler struct {
	accountService   service.AccountService
	statementService service.StatementService
	logger           *slog.Logger
}

func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, statementService service.StatementService) *AccountHandler {
	return &AccountHandler{
		accountService:   accountService,
		statementService: statementService,
		logger:           logger,
	}
}

// Me returns the caller's account including the current balance
func (h *AccountHandler) Me(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		RespondWalletError(c, shared.ErrUnauthorized)
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), callerID)
	if err != nil {
		h.logFailure(c, "Failed to get account", err)
		RespondWalletError(c, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// Statement returns a page of the caller's projected statement. The projection
// is eventually consistent with the balance returned by Me.
func (h *AccountHandler) Statement(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		RespondWalletError(c, shared.ErrUnauthorized)
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondInvalidRequest(c, err)
		return
	}

	lines, total, err := h.statementService.GetStatement(c.Request.Context(), callerID, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logFailure(c, "Failed to read statement", err)
		RespondWalletError(c, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, mapLinesToResponse(lines), pagination.Page, pagination.PerPage, int(total))
}

func (h *AccountHandler) logFailure(c *gin.Context, msg string, err error) {
	if shared.KindOf(err) == shared.ErrorKindInternal {
		h.logger.Error(msg, "correlation_id", middleware.GetCorrelationID(c), "error", err)
	}
}
