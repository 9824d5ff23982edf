package handler

import (
	"errors"
	"net/http"

	"pinvault/internal/middleware"
	"pinvault/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

// Initialize handles POST /checkout/initialize. Guests may buy cards; funding a wallet needs a login.
func (h *CheckoutHandler) Initialize(c *gin.Context) {
	var req struct {
		Purpose     string `json:"purpose"`
		ProductType string `json:"productType"`
		Quantity    int    `json:"quantity"`
		Amount      int64  `json:"amount"`
		Email       string `json:"email" binding:"required,email"`
		DisplayName string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.checkout.Initialize(c.Request.Context(), service.CheckoutRequest{
		BuyerID:     middleware.OptionalUserID(c),
		Purpose:     req.Purpose,
		ProductType: req.ProductType,
		Quantity:    req.Quantity,
		Amount:      req.Amount,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if shortfall(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrGuestDeposit):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
	case err != nil:
		h.logger.Error("checkout initialize", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
	default:
		c.JSON(http.StatusOK, resp)
	}
}
