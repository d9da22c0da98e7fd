// Package identities implements user registration and authentication. It is
// a collaborator of the portfolio core: it supplies an authenticated user id
// per request and nothing more.
package identities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stockfolio/stockfolio/pkg/models"
)

var (
	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials is returned for a wrong email/password pair or
	// an invalid or expired token.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authenticator resolves a credential to a user. The two variants are
// password login (subject = email, secret = password) and token login
// (subject ignored, secret = bearer token).
type Authenticator interface {
	Authenticate(ctx context.Context, subject, secret string) (*models.User, error)
}

// IdentityService defines user identity operations.
type IdentityService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	PasswordAuthenticator() Authenticator
	TokenAuthenticator() Authenticator
}

// Service implements IdentityService
type Service struct {
	logger      *zap.Logger
	db          *gorm.DB
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewService creates a new IdentityService signing tokens with jwtSecret.
// Tokens expire after tokenExpiry.
func NewService(logger *zap.Logger, db *gorm.DB, jwtSecret string, tokenExpiry time.Duration) (IdentityService, error) {
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if tokenExpiry <= 0 {
		tokenExpiry = 30 * time.Minute
	}
	return &Service{
		logger:      logger,
		db:          db,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}, nil
}

// Register registers a new user
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login authenticates by email and password and issues a signed token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.PasswordAuthenticator().Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Token:  token,
	}, nil
}

// ValidateToken validates a JWT token and returns the subject user id.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", ErrInvalidCredentials
	}
	return userID, nil
}

// GetUser gets a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// PasswordAuthenticator returns the email/password login variant.
func (s *Service) PasswordAuthenticator() Authenticator {
	return &passwordLogin{svc: s}
}

// TokenAuthenticator returns the bearer-token login variant.
func (s *Service) TokenAuthenticator() Authenticator {
	return &tokenLogin{svc: s}
}

type passwordLogin struct {
	svc *Service
}

func (a *passwordLogin) Authenticate(ctx context.Context, subject, secret string) (*models.User, error) {
	var user models.User
	if err := a.svc.db.WithContext(ctx).Where("email = ?", subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

type tokenLogin struct {
	svc *Service
}

func (a *tokenLogin) Authenticate(ctx context.Context, _, secret string) (*models.User, error) {
	userID, err := a.svc.ValidateToken(secret)
	if err != nil {
		return nil, err
	}
	return a.svc.GetUser(ctx, userID)
}

// generateToken generates a signed JWT for the user
func (s *Service) generateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(s.tokenExpiry).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
