package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

type UpdateCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// GetCart returns the current cart (user or guest session)
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, err := ctrl.cartService.GetOrCreate(middleware.GetCartIdentity(c))
	if err != nil {
		log.Error("Failed to fetch cart", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":           cart,
		"total_amount":   cart.TotalAmount(),
		"total_quantity": cart.TotalQuantity(),
	})
}

// AddToCart puts one unit of a product into the cart
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Не указан товар")
		return
	}

	cart, err := ctrl.cartService.AddProduct(middleware.GetCartIdentity(c), req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
		case errors.Is(err, service.ErrProductUnavailable):
			apperrors.BadRequest(c, apperrors.ProductUnavailable, "Товара нет в наличии")
		default:
			log.Error("Failed to add product to cart", err, map[string]interface{}{
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":           cart,
		"total_amount":   cart.TotalAmount(),
		"total_quantity": cart.TotalQuantity(),
	})
}

// UpdateCartItem overwrites a line quantity, zero removes the line
// PUT /api/v1/cart/items
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные")
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(middleware.GetCartIdentity(c), req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			apperrors.NotFound(c, apperrors.CartNotFound, "Корзина не найдена")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Товара нет в корзине")
		default:
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"product_id": req.ProductID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":           cart,
		"total_amount":   cart.TotalAmount(),
		"total_quantity": cart.TotalQuantity(),
	})
}

// RemoveCartItem removes a product from the cart
// DELETE /api/v1/cart/items/:productID
func (ctrl *CartController) RemoveCartItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "productID")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор товара")
		return
	}

	cart, err := ctrl.cartService.RemoveProduct(middleware.GetCartIdentity(c), productID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			apperrors.NotFound(c, apperrors.CartNotFound, "Корзина не найдена")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Товара нет в корзине")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":           cart,
		"total_amount":   cart.TotalAmount(),
		"total_quantity": cart.TotalQuantity(),
	})
}

// ClearCart removes every item
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	if err := ctrl.cartService.Clear(middleware.GetCartIdentity(c)); err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			apperrors.NotFound(c, apperrors.CartNotFound, "Корзина не найдена")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Корзина очищена"})
}
