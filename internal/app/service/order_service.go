package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOrderOwner     = errors.New("order belongs to another customer")
)

// InsufficientStockError names the product that blocked a confirmation.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// Notifier delivers a human-readable message to the shop operators.
// Delivery failures must never fail the business operation.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type CheckoutInput struct {
	ContactPhone    string
	DeliveryAddress string
	Comment         string
}

// BulkStatusResult reports one order of a bulk transition.
type BulkStatusResult struct {
	OrderID uint   `json:"order_id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type OrderService interface {
	Checkout(ctx context.Context, customerID uint, identity CartIdentity, input CheckoutInput) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, newStatus model.OrderStatus, adminComment string) (*model.Order, error)
	BulkUpdateStatus(ctx context.Context, orderIDs []uint, newStatus model.OrderStatus, adminComment string) []BulkStatusResult
	GetOrder(orderID uint) (*model.Order, error)
	GetCustomerOrder(customerID, orderID uint) (*model.Order, error)
	GetCustomerOrders(customerID uint) ([]model.Order, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	notifier  Notifier
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, cartRepo repository.CartRepository, notifier Notifier) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		notifier:  notifier,
	}
}

// Checkout turns the customer's cart into an order. Item prices are captured
// at checkout time so later catalog edits do not rewrite order history. The
// cart is destroyed in the same transaction. Stock is not touched here, it is
// consumed when an admin confirms the order.
func (s *orderService) Checkout(ctx context.Context, customerID uint, identity CartIdentity, input CheckoutInput) (*model.Order, error) {
	cart, err := s.findCart(identity)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	logger.Info("Starting checkout", map[string]interface{}{
		"customer_id": customerID,
		"cart_id":     cart.ID,
		"items":       len(cart.Items),
	})

	contactPhone := input.ContactPhone
	if contactPhone == "" {
		// Fall back to the phone from the customer's profile.
		var customer model.Customer
		if err := s.db.First(&customer, customerID).Error; err != nil {
			return nil, err
		}
		contactPhone = customer.Phone
	}

	order := &model.Order{
		CustomerID:      customerID,
		Status:          model.OrderStatusNew,
		ContactPhone:    contactPhone,
		DeliveryAddress: input.DeliveryAddress,
		Comment:         input.Comment,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}
	order.RecalculateTotal()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Cart{}, cart.ID).Error
	})
	if err != nil {
		logger.Error("Checkout transaction failed", err, map[string]interface{}{
			"customer_id": customerID,
			"cart_id":     cart.ID,
		})
		return nil, err
	}

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, s.newOrderMessage(created))

	logger.Info("Checkout completed", map[string]interface{}{
		"order_id":     created.ID,
		"customer_id":  customerID,
		"total_amount": created.TotalAmount.String(),
	})
	return created, nil
}

func (s *orderService) findCart(identity CartIdentity) (*model.Cart, error) {
	var cart *model.Cart
	var err error
	switch {
	case identity.UserID != nil:
		cart, err = s.cartRepo.FindByUserID(*identity.UserID)
	case identity.SessionKey != nil:
		cart, err = s.cartRepo.FindBySessionKey(*identity.SessionKey)
	default:
		return nil, ErrInvalidIdentity
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	return cart, nil
}

// UpdateStatus drives the order through its status machine:
//
//	new -> confirmed   stock is consumed, all items or nothing
//	new -> cancelled   no stock movement, nothing was consumed yet
//	confirmed -> cancelled  stock is returned
//
// Setting the current status again is an idempotent no-op. Every other
// transition is rejected. Stock movements run under row locks so concurrent
// confirmations cannot oversell.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uint, newStatus model.OrderStatus, adminComment string) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidTransition
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status == newStatus {
		logger.Debug("Order already in requested status", map[string]interface{}{
			"order_id": orderID,
			"status":   newStatus,
		})
		return order, nil
	}

	switch {
	case order.Status == model.OrderStatusNew && newStatus == model.OrderStatusConfirmed:
		err = s.confirm(order, adminComment)
	case order.Status != model.OrderStatusCancelled && newStatus == model.OrderStatusCancelled:
		err = s.cancel(order, adminComment)
	default:
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, s.statusMessage(order))

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return order, nil
}

func (s *orderService) confirm(order *model.Order, adminComment string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		products := make(map[uint]*model.Product, len(order.Items))

		// Lock and validate every line before the first write so a late
		// shortage cannot leave a partial decrement.
		for _, item := range order.Items {
			var product model.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, item.ProductID).Error; err != nil {
				return err
			}
			if product.Quantity < item.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Quantity,
					Requested:   item.Quantity,
				}
			}
			products[item.ProductID] = &product
		}

		for _, item := range order.Items {
			product := products[item.ProductID]
			product.Quantity -= item.Quantity
			if err := tx.Model(&model.Product{}).Where("id = ?", product.ID).
				Update("quantity", product.Quantity).Error; err != nil {
				return err
			}
		}

		order.Status = model.OrderStatusConfirmed
		order.AdminComment = adminComment
		order.RecalculateTotal()
		return tx.Save(order).Error
	})
}

func (s *orderService) cancel(order *model.Order, adminComment string) error {
	restock := order.Status == model.OrderStatusConfirmed

	return s.db.Transaction(func(tx *gorm.DB) error {
		if restock {
			for _, item := range order.Items {
				if err := tx.Model(&model.Product{}).Where("id = ?", item.ProductID).
					Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}

		order.Status = model.OrderStatusCancelled
		order.AdminComment = adminComment
		return tx.Save(order).Error
	})
}

// BulkUpdateStatus applies the same transition to several orders. Each order
// succeeds or fails on its own.
func (s *orderService) BulkUpdateStatus(ctx context.Context, orderIDs []uint, newStatus model.OrderStatus, adminComment string) []BulkStatusResult {
	results := make([]BulkStatusResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		result := BulkStatusResult{OrderID: id, OK: true}
		if _, err := s.UpdateStatus(ctx, id, newStatus, adminComment); err != nil {
			result.OK = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

func (s *orderService) GetOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetCustomerOrder(customerID, orderID uint) (*model.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

func (s *orderService) GetCustomerOrders(customerID uint) ([]model.Order, error) {
	return s.orderRepo.FindByCustomerID(customerID)
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return s.orderRepo.List(filter)
}

func (s *orderService) notify(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, text); err != nil {
		logger.Error("Failed to send order notification", err, nil)
	}
}

func (s *orderService) newOrderMessage(order *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Новый заказ №%d</b>\n", order.ID)
	if order.Customer.ID != 0 {
		fmt.Fprintf(&b, "Покупатель: %s\n", order.Customer.FullName())
	}
	fmt.Fprintf(&b, "Телефон: %s\n", order.ContactPhone)
	if order.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Адрес: %s\n", order.DeliveryAddress)
	}
	b.WriteString("\nСостав заказа:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "— %s × %d по %s ₽\n", item.Product.Name, item.Quantity, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nИтого: %s ₽", order.TotalAmount.StringFixed(2))
	return b.String()
}

func (s *orderService) statusMessage(order *model.Order) string {
	var status string
	switch order.Status {
	case model.OrderStatusConfirmed:
		status = "подтверждён"
	case model.OrderStatusCancelled:
		status = "отменён"
	default:
		status = string(order.Status)
	}
	msg := fmt.Sprintf("<b>Заказ №%d %s</b>\nСумма: %s ₽", order.ID, status, order.TotalAmount.StringFixed(2))
	if order.AdminComment != "" {
		msg += "\nКомментарий: " + order.AdminComment
	}
	return msg
}
