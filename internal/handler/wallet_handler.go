package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pinvault/internal/middleware"
	"pinvault/internal/repository"
	"pinvault/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WalletHandler struct {
	wallets *service.WalletService
	txs     *repository.TransactionRepository
	logger  *zap.Logger
}

func NewWalletHandler(wallets *service.WalletService, txs *repository.TransactionRepository, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, txs: txs, logger: logger}
}

// GetBalance returns the current user's wallet balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	w, err := h.wallets.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("wallet balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": w.Balance, "currency": w.Currency})
}

// Transactions lists the current user's ledger entries, newest first.
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.txs.ListByUserID(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		h.logger.Error("list transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// Purchase handles POST /wallet/purchase.
func (h *WalletHandler) Purchase(c *gin.Context) {
	var req struct {
		ProductType string `json:"productType" binding:"required"`
		Quantity    int    `json:"quantity" binding:"required,min=1"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.wallets.Purchase(c.Request.Context(), service.WalletPurchase{
		UserID:      middleware.GetUserID(c),
		Email:       c.GetString("email"),
		DisplayName: req.DisplayName,
		CardType:    req.ProductType,
		Quantity:    req.Quantity,
	})
	if shortfall(c, err) {
		return
	}
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("wallet purchase", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference":   res.Order.Reference,
		"status":      res.Order.Status,
		"cards":       res.Cards,
		"emailStatus": res.Email.Status,
	})
}

// Withdraw handles POST /wallet/withdraw. The payout settles later via transfer events.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req struct {
		Amount        int64  `json:"amount" binding:"required,gt=0"`
		RecipientCode string `json:"recipientCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.wallets.Withdraw(c.Request.Context(), middleware.GetUserID(c), req.Amount, req.RecipientCode)
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrTransferFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "transfer could not be started; your balance was not charged"})
		return
	case err != nil:
		h.logger.Error("wallet withdraw", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"reference": t.Reference, "status": t.Status})
}
