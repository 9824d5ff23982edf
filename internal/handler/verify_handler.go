package handler

import (
	"errors"
	"net/http"

	"pinvault/internal/service"
	"pinvault/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VerifyHandler is polled by guest checkout when the webhook has not arrived yet.
type VerifyHandler struct {
	verification *service.VerificationService
	logger       *zap.Logger
}

func NewVerifyHandler(verification *service.VerificationService, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{verification: verification, logger: logger}
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "reference is required"})
		return
	}
	res, err := h.verification.Verify(c.Request.Context(), req.Reference)
	switch {
	case errors.Is(err, payment.ErrVerificationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "could not reach payment gateway"})
		return
	case errors.Is(err, service.ErrPaymentNotSuccessful),
		errors.Is(err, service.ErrIntentMissing),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrGuestDeposit):
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	case err != nil:
		h.logger.Error("verify", zap.String("reference", req.Reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	if res.Outcome == service.OutcomeShortfall {
		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"reference": req.Reference,
			"error":     "payment received; your order is pending restock and will be delivered by email",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reference": req.Reference})
}
