package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockfolio/stockfolio/api"
	"github.com/stockfolio/stockfolio/internal/identities"
	"github.com/stockfolio/stockfolio/internal/portfolio"
	"github.com/stockfolio/stockfolio/pkg/models"
)

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Position{}))

	logger := zap.NewNop()
	identitySvc, err := identities.NewService(logger, db, "test-secret", 30*time.Minute)
	require.NoError(t, err)
	portfolioSvc := portfolio.NewService(logger, portfolio.NewGormStore(db), nil)

	return api.NewServer(logger, identitySvc, portfolioSvc, nil).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine) string {
	w := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"name": "Test User", "email": "test@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"email": "test@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestStockListUnauthorized(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/stock_list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/stock_list", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := setupRouter(t)
	registerAndLogin(t, router)

	w := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"name": "Someone Else", "email": "test@example.com", "password": "password456",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")
}

func TestLoginWrongPassword(t *testing.T) {
	router := setupRouter(t)
	registerAndLogin(t, router)

	w := doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"email": "test@example.com", "password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUser(t *testing.T) {
	router := setupRouter(t)
	token := registerAndLogin(t, router)

	w := doJSON(t, router, http.MethodGet, "/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "test@example.com", user.Email)
}

func TestBuySellFlow(t *testing.T) {
	router := setupRouter(t)
	token := registerAndLogin(t, router)

	// First buy opens the position.
	w := doJSON(t, router, http.MethodPost, "/buyin", token, gin.H{
		"stockID": "2330", "name": "TSMC", "amount": 10, "price": "100.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Stock Add Success!")

	// Second buy reweights the average cost.
	w = doJSON(t, router, http.MethodPost, "/buyin", token, gin.H{
		"stockID": "2330", "name": "TSMC", "amount": 10, "price": "200.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "UpDate Success!")

	var tradeResp models.TradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tradeResp))
	require.NotNil(t, tradeResp.Position)
	assert.Equal(t, int64(20), tradeResp.Position.QuantityHeld)
	assert.Equal(t, "150", tradeResp.Position.AverageCost.String())

	w = doJSON(t, router, http.MethodGet, "/stock_list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var positions []models.Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &positions))
	require.Len(t, positions, 1)

	// Selling more than held is rejected without touching state.
	w = doJSON(t, router, http.MethodPost, "/sell", token, gin.H{
		"stockID": "2330", "amount": 21, "price": "150.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock!")

	// Selling everything closes the position.
	w = doJSON(t, router, http.MethodPost, "/sell", token, gin.H{
		"stockID": "2330", "amount": 20, "price": "150.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "UpDate Success!")

	w = doJSON(t, router, http.MethodGet, "/stock_list", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &positions))
	assert.Empty(t, positions)
}

func TestBuyInvalidQuantity(t *testing.T) {
	router := setupRouter(t)
	token := registerAndLogin(t, router)

	w := doJSON(t, router, http.MethodPost, "/buyin", token, gin.H{
		"stockID": "2330", "name": "TSMC", "amount": -5, "price": "100.00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSellUnheldStock(t *testing.T) {
	router := setupRouter(t)
	token := registerAndLogin(t, router)

	w := doJSON(t, router, http.MethodPost, "/sell", token, gin.H{
		"stockID": "0050", "amount": 1, "price": "100.00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock!")
}
