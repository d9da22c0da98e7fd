package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/internal/portfolio"
	"github.com/stockfolio/stockfolio/pkg/models"
)

// userUUID extracts the authenticated user id set by the auth middleware.
func userUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

// listStocks returns the caller's current holdings.
func (s *Server) listStocks(c *gin.Context) {
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	positions, err := s.portfolio.ListHoldings(c.Request.Context(), userID)
	if err != nil {
		s.tradeError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

// buyStock records a buy against the caller's portfolio.
func (s *Server) buyStock(c *gin.Context) {
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos, err := s.portfolio.Buy(c.Request.Context(), userID, req.InstrumentID, req.DisplayName, req.Quantity, req.Price)
	if err != nil {
		s.tradeError(c, err)
		return
	}

	// A freshly opened position has identical create/update stamps.
	message := "UpDate Success!"
	if pos.CreatedAt.Equal(pos.UpdatedAt) {
		message = "Stock Add Success!"
	}
	c.JSON(http.StatusOK, models.TradeResponse{Message: message, Position: pos})
}

// sellStock records a sell against the caller's portfolio.
func (s *Server) sellStock(c *gin.Context) {
	userID, ok := userUUID(c)
	if !ok {
		return
	}

	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.portfolio.Sell(c.Request.Context(), userID, req.InstrumentID, req.Quantity, req.Price)
	if err != nil {
		s.tradeError(c, err)
		return
	}

	switch result.Outcome {
	case portfolio.SellRejected:
		c.JSON(http.StatusOK, models.TradeResponse{Message: "Insufficient stock!"})
	case portfolio.SellClosed:
		c.JSON(http.StatusOK, models.TradeResponse{Message: "UpDate Success!"})
	default:
		c.JSON(http.StatusOK, models.TradeResponse{Message: "UpDate Success!", Position: result.Position})
	}
}

// tradeError maps portfolio errors onto HTTP responses.
func (s *Server) tradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidQuantity), errors.Is(err, portfolio.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrStoreUnavailable):
		s.logger.Error("holding store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		s.logger.Error("trade failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
