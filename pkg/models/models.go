// Package models contains shared data models used across the application
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a registered user
type User struct {
	ID           uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid" validate:"required,uuid"`
	Name         string    `json:"name" validate:"required,min=1,max=50"`
	Email        string    `json:"email" gorm:"uniqueIndex" validate:"required,email,max=254"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Position represents a user's current stake in one instrument: the quantity
// held and the weighted-average cost basis across all open lots. A position
// with zero quantity is never stored; closing a position deletes the row.
type Position struct {
	UserID       uuid.UUID       `json:"user_id" gorm:"primaryKey;type:uuid" validate:"required,uuid"`
	InstrumentID string          `json:"stock_id" gorm:"primaryKey;column:instrument_id" validate:"required,max=20"`
	DisplayName  string          `json:"stock_name" validate:"required,max=100"`
	QuantityHeld int64           `json:"stock_hold" gorm:"column:quantity_held" validate:"min=1"`
	AverageCost  decimal.Decimal `json:"stock_cost" gorm:"column:average_cost;type:decimal(20,2)"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=50" validate:"required,min=1,max=50"`
	Email    string `json:"email" binding:"required,email" validate:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8,max=128"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email,max=254"`
	Password string `json:"password" binding:"required" validate:"required,min=8,max=128"`
}

// LoginResponse represents a user login response
type LoginResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}

// TradeRequest represents a buy or sell order against the caller's portfolio.
// DisplayName is only meaningful on a buy that opens a new position; it is
// immutable afterwards. Price is accepted on sells for interface symmetry but
// never alters the recorded cost basis.
type TradeRequest struct {
	InstrumentID string          `json:"stockID" binding:"required,max=20" validate:"required,max=20"`
	DisplayName  string          `json:"name" binding:"omitempty,max=100" validate:"omitempty,max=100"`
	Quantity     int64           `json:"amount" binding:"required" validate:"required"`
	Price        decimal.Decimal `json:"price" validate:"omitempty"`
}

// TradeResponse represents the user-facing result of a trade
type TradeResponse struct {
	Message  string    `json:"message"`
	Position *Position `json:"position,omitempty"`
}
