// Package api exposes the HTTP transport for the service. It is thin
// plumbing: parsing, authentication middleware and error mapping around the
// identities and portfolio services.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/internal/identities"
	"github.com/stockfolio/stockfolio/internal/portfolio"
)

// Server represents the API server
type Server struct {
	router     *gin.Engine
	logger     *zap.Logger
	identities identities.IdentityService
	portfolio  *portfolio.Service
	validator  *validator.Validate
}

// NewServer creates a new API server with injected services.
func NewServer(logger *zap.Logger, identitySvc identities.IdentityService, portfolioSvc *portfolio.Service, allowedOrigins []string) *Server {
	server := &Server{
		logger:     logger,
		identities: identitySvc,
		portfolio:  portfolioSvc,
		validator:  validator.New(),
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Public routes
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.POST("/register", s.register)
	s.router.POST("/login", s.login)
	s.router.GET("/logout", s.logout)

	// Protected routes (require a bearer token)
	protected := s.router.Group("/")
	protected.Use(s.authMiddleware())
	{
		protected.GET("/", s.currentUser)
		protected.GET("/stock_list", s.listStocks)
		protected.POST("/buyin", s.buyStock)
		protected.POST("/sell", s.sellStock)
	}
}

// authMiddleware authenticates the bearer token and stores the user id in
// the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		userID, err := s.identities.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// healthCheck returns service health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
