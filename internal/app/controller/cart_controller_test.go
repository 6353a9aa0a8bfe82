package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	"github.com/avolkov/gardenshop-backend/internal/db"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

func setupCartControllerTest(t *testing.T) (*CartController, *gin.Engine, *gorm.DB, *model.Customer, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := service.NewCartService(cartRepo, productRepo)
	cartController := NewCartController(cartService)

	customer := &model.Customer{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Phone:        "+79001234567",
		FirstName:    "Иван",
		LastName:     "Петров",
		Role:         model.RoleUser,
	}
	testDB.Create(customer)

	category := &model.Category{
		Name:     "Семена",
		Slug:     "semena",
		IsActive: true,
	}
	testDB.Create(category)

	product := &model.Product{
		Name:       "Семена томата",
		Slug:       "semena-tomata",
		Price:      decimal.NewFromInt(100),
		Quantity:   10,
		CategoryID: category.ID,
		IsActive:   true,
	}
	testDB.Create(product)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return cartController, router, testDB, customer, product
}

// Helper to simulate an authenticated request.
func setUserIDInContext(c *gin.Context, userID uint) {
	c.Set(middleware.UserIDKey, userID)
}

// Helper to simulate a guest request with a session cookie.
func setSessionKeyInContext(c *gin.Context, key string) {
	c.Set(middleware.SessionKeyKey, key)
}

func TestCartController_GetCart_Empty(t *testing.T) {
	controller, router, _, customer, _ := setupCartControllerTest(t)

	router.GET("/cart", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.GetCart(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, float64(0), response["total_quantity"])
}

func TestCartController_AddToCart_Success(t *testing.T) {
	controller, router, _, customer, product := setupCartControllerTest(t)

	router.POST("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.AddToCart(c)
	})

	reqBody := AddToCartRequest{ProductID: product.ID}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, float64(1), response["total_quantity"])
	assert.Equal(t, "100", response["total_amount"])
}

func TestCartController_AddToCart_GuestSession(t *testing.T) {
	controller, router, _, _, product := setupCartControllerTest(t)

	router.POST("/cart/items", func(c *gin.Context) {
		setSessionKeyInContext(c, "guest-session-key")
		controller.AddToCart(c)
	})

	reqBody := AddToCartRequest{ProductID: product.ID}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, float64(1), response["total_quantity"])
}

func TestCartController_AddToCart_ProductNotFound(t *testing.T) {
	controller, router, _, customer, _ := setupCartControllerTest(t)

	router.POST("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.AddToCart(c)
	})

	reqBody := AddToCartRequest{ProductID: 9999}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Товар не найден")
}

func TestCartController_AddToCart_OutOfStock(t *testing.T) {
	controller, router, testDB, customer, product := setupCartControllerTest(t)

	testDB.Model(product).Update("quantity", 0)

	router.POST("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.AddToCart(c)
	})

	reqBody := AddToCartRequest{ProductID: product.ID}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Товара нет в наличии")
}

func TestCartController_UpdateCartItem_Success(t *testing.T) {
	controller, router, _, customer, product := setupCartControllerTest(t)

	router.POST("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.AddToCart(c)
	})
	router.PUT("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.UpdateCartItem(c)
	})

	addBody, _ := json.Marshal(AddToCartRequest{ProductID: product.ID})
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(addBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	updateBody, _ := json.Marshal(UpdateCartItemRequest{ProductID: product.ID, Quantity: 5})
	req = httptest.NewRequest(http.MethodPut, "/cart/items", bytes.NewBuffer(updateBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, float64(5), response["total_quantity"])
	assert.Equal(t, "500", response["total_amount"])
}

func TestCartController_RemoveCartItem_NotInCart(t *testing.T) {
	controller, router, _, customer, product := setupCartControllerTest(t)

	router.GET("/cart", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.GetCart(c)
	})
	router.DELETE("/cart/items/:productID", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.RemoveCartItem(c)
	})

	// Create the cart first, then remove a product that was never added.
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cart/items/"+strconv.FormatUint(uint64(product.ID), 10), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Товара нет в корзине")
}

func TestCartController_ClearCart(t *testing.T) {
	controller, router, _, customer, product := setupCartControllerTest(t)

	router.POST("/cart/items", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.AddToCart(c)
	})
	router.DELETE("/cart", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.ClearCart(c)
	})
	router.GET("/cart", func(c *gin.Context) {
		setUserIDInContext(c, customer.ID)
		controller.GetCart(c)
	})

	addBody, _ := json.Marshal(AddToCartRequest{ProductID: product.ID})
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBuffer(addBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Корзина очищена")

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["total_quantity"])
}
