package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type CheckoutRequest struct {
	// Empty falls back to the phone from the customer's profile.
	ContactPhone    string `json:"contact_phone"`
	DeliveryAddress string `json:"delivery_address"`
	Comment         string `json:"comment"`
}

type UpdateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

type BulkStatusRequest struct {
	OrderIDs     []uint `json:"order_ids" binding:"required,min=1"`
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// Checkout turns the customer's cart into an order
// POST /api/v1/orders
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные заказа")
		return
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, middleware.GetCartIdentity(c), service.CheckoutInput{
		ContactPhone:    req.ContactPhone,
		DeliveryAddress: req.DeliveryAddress,
		Comment:         req.Comment,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			apperrors.BadRequest(c, apperrors.CartEmpty, "Корзина пуста")
			return
		}
		log.Error("Checkout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Не удалось оформить заказ. Попробуйте позже")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// MyOrders returns the customer's order history
// GET /api/v1/orders
func (ctrl *OrderController) MyOrders(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetCustomerOrders(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder returns one of the customer's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный номер заказа")
		return
	}

	order, err := ctrl.orderService.GetCustomerOrder(userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Заказ не найден")
		case errors.Is(err, service.ErrNotOrderOwner):
			apperrors.Forbidden(c, "Это чужой заказ")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders returns all orders for the back office (admin)
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.OrderFilter{}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if v := c.Query("status"); v != "" {
		status := model.OrderStatus(v)
		if !status.Valid() {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Неизвестный статус заказа")
			return
		}
		filter.Status = &status
	}
	if v := c.Query("customer_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			customerID := uint(id)
			filter.CustomerID = &customerID
		}
	}

	orders, total, err := ctrl.orderService.ListOrders(filter)
	if err != nil {
		log.Error("Failed to list orders", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":    orders,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// GetOrderAdmin returns any order (admin)
// GET /api/v1/admin/orders/:id
func (ctrl *OrderController) GetOrderAdmin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный номер заказа")
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Заказ не найден")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateStatus moves an order through the status machine (admin)
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный номер заказа")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Не указан статус")
		return
	}

	order, err := ctrl.orderService.UpdateStatus(c.Request.Context(), id, model.OrderStatus(req.Status), req.AdminComment)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Заказ не найден")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.BadRequest(c, apperrors.OrderInvalidTransition, "Недопустимая смена статуса")
		case errors.As(err, &stockErr):
			apperrors.BadRequest(c, apperrors.OrderInsufficientStock,
				fmt.Sprintf("Недостаточно товара «%s»: в наличии %d, в заказе %d",
					stockErr.ProductName, stockErr.Available, stockErr.Requested))
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// BulkUpdateStatus applies one transition to many orders (admin)
// POST /api/v1/admin/orders/status
func (ctrl *OrderController) BulkUpdateStatus(c *gin.Context) {
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Укажите заказы и статус")
		return
	}

	status := model.OrderStatus(req.Status)
	if !status.Valid() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Неизвестный статус заказа")
		return
	}

	results := ctrl.orderService.BulkUpdateStatus(c.Request.Context(), req.OrderIDs, status, req.AdminComment)

	c.JSON(http.StatusOK, gin.H{"results": results})
}
