package handler

import (
	"errors"
	"net/http"

	"pinvault/internal/repository"

	"github.com/gin-gonic/gin"
)

// shortfall answers 409 with the stock counts when err is a *repository.ShortfallError.
func shortfall(c *gin.Context, err error) bool {
	var sf *repository.ShortfallError
	if !errors.As(err, &sf) {
		return false
	}
	c.JSON(http.StatusConflict, gin.H{
		"error":     "insufficient stock",
		"cardType":  sf.CardType,
		"required":  sf.Required,
		"available": sf.Available,
	})
	return true
}
