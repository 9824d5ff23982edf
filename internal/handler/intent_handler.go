package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pinvault/internal/domain"
	"pinvault/internal/intent"
	"pinvault/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IntentHandler struct {
	intents intent.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

func NewIntentHandler(intents intent.Cache, ttl time.Duration, logger *zap.Logger) *IntentHandler {
	return &IntentHandler{intents: intents, ttl: ttl, logger: logger}
}

type storeIntentRequest struct {
	Reference   string `json:"reference" binding:"required"`
	Purpose     string `json:"purpose"`
	ProductType string `json:"productType"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	TotalAmount int64  `json:"totalAmount" binding:"required,gt=0"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
}

// Store handles POST /intents. The buyer is the bearer of the request's token, or a guest.
// Prices in the body are what the buyer is expected to pay; fulfillment re-prices against
// the cards it actually binds.
func (h *IntentHandler) Store(c *gin.Context) {
	var req storeIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Purpose != domain.PurposeWalletFunding && (req.Quantity < 1 || !domain.IsCardType(req.ProductType)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productType and quantity are required for purchases"})
		return
	}
	buyer := domain.GuestBuyer
	if uid := middleware.OptionalUserID(c); uid != nil {
		buyer = strconv.FormatUint(uint64(*uid), 10)
	} else if req.Purpose == domain.PurposeWalletFunding {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wallet funding requires authentication"})
		return
	}
	p := &intent.PaymentIntent{
		Reference:   req.Reference,
		BuyerID:     buyer,
		Purpose:     req.Purpose,
		ProductType: req.ProductType,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TotalAmount: req.TotalAmount,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	if err := h.intents.Put(c.Request.Context(), p, h.ttl); err != nil {
		h.logger.Error("store intent", zap.String("reference", req.Reference), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not store intent"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reference": p.Reference, "expiresIn": int(h.ttl.Seconds())})
}

// Get handles GET /intents/:reference.
func (h *IntentHandler) Get(c *gin.Context) {
	p, err := h.intents.Get(c.Request.Context(), c.Param("reference"))
	if errors.Is(err, intent.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "intent not found"})
		return
	}
	if err != nil {
		h.logger.Error("load intent", zap.String("reference", c.Param("reference")), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load intent"})
		return
	}
	c.JSON(http.StatusOK, p)
}
