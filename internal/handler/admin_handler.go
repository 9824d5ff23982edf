package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pinvault/internal/domain"
	"pinvault/internal/repository"
	"pinvault/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCardImageSize = 5 << 20

// AdminHandler serves stock and order recovery for operators (role ADMIN).
type AdminHandler struct {
	inventory   *service.InventoryService
	fulfillment *service.FulfillmentService
	orders      *repository.OrderRepository
	logger      *zap.Logger
}

func NewAdminHandler(inventory *service.InventoryService, fulfillment *service.FulfillmentService, orders *repository.OrderRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{inventory: inventory, fulfillment: fulfillment, orders: orders, logger: logger}
}

// Restock handles POST /admin/cards.
func (h *AdminHandler) Restock(c *gin.Context) {
	var req struct {
		Type  string              `json:"type" binding:"required"`
		Price int64               `json:"price" binding:"required,gt=0"`
		Cards []service.CardInput `json:"cards" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.inventory.Restock(c.Request.Context(), req.Type, req.Price, req.Cards)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate serial number"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": n})
}

// UploadImageCard handles POST /admin/cards/image (multipart: type, price, serialNumber, file).
func (h *AdminHandler) UploadImageCard(c *gin.Context) {
	price, err := strconv.ParseInt(c.PostForm("price"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a whole number"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if fh.Size > maxCardImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large (max 5MB)"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer f.Close()

	card, err := h.inventory.AddImageCard(c.Request.Context(), c.PostForm("type"), price, c.PostForm("serialNumber"), f)
	switch {
	case errors.Is(err, service.ErrImagesDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("upload card image", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, card)
}

// Stock handles GET /admin/cards/stock.
func (h *AdminHandler) Stock(c *gin.Context) {
	counts, err := h.inventory.Available(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count stock"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// PendingOrders handles GET /admin/orders?status=PENDING.
func (h *AdminHandler) PendingOrders(c *gin.Context) {
	status := c.DefaultQuery("status", domain.OrderStatusPending)
	list, err := h.orders.ListByStatus(c.Request.Context(), status, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// ReplayOrder handles POST /admin/orders/:reference/replay.
func (h *AdminHandler) ReplayOrder(c *gin.Context) {
	res, err := h.fulfillment.Replay(c.Request.Context(), c.Param("reference"))
	if h.orderError(c, err) {
		return
	}
	body := gin.H{"reference": res.Order.Reference, "status": res.Order.Status, "outcome": res.Outcome.String()}
	if res.Shortfall != nil {
		body["required"] = res.Shortfall.Required
		body["available"] = res.Shortfall.Available
	}
	c.JSON(http.StatusOK, body)
}

// FailOrder handles POST /admin/orders/:reference/fail.
func (h *AdminHandler) FailOrder(c *gin.Context) {
	order, err := h.fulfillment.FailOrder(c.Request.Context(), c.Param("reference"))
	if h.orderError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": order.Reference, "status": order.Status})
}

func (h *AdminHandler) orderError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, service.ErrOrderNotPending), errors.Is(err, service.ErrAmountMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("order recovery", zap.String("reference", c.Param("reference")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	return true
}
