package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/internal/identities"
	"github.com/stockfolio/stockfolio/pkg/models"
)

// register creates a new user account.
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := s.identities.Register(c.Request.Context(), &req)
	if errors.Is(err, identities.ErrEmailTaken) {
		c.JSON(http.StatusOK, gin.H{"message": "Email already exists. Try logging in!"})
		return
	}
	if err != nil {
		s.logger.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success. Try logging in!"})
}

// login authenticates email and password and returns a signed token.
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.identities.Login(c.Request.Context(), &req)
	if errors.Is(err, identities.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password."})
		return
	}
	if err != nil {
		s.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// logout exists for client symmetry; tokens are stateless and simply expire.
func (s *Server) logout(c *gin.Context) {
	c.JSON(http.StatusOK, "Log Out Success!")
}

// currentUser returns the authenticated user's profile.
func (s *Server) currentUser(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := s.identities.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}
