package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/db"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func setupOrderServiceTest(t *testing.T) (OrderService, *gorm.DB, *fakeNotifier, *model.Customer, *model.Product, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	notifier := &fakeNotifier{}
	orderService := NewOrderService(testDB, orderRepo, cartRepo, notifier)

	customer := &model.Customer{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Phone:        "+79990001122",
		FirstName:    "Иван",
		LastName:     "Петров",
		Role:         model.RoleUser,
	}
	testDB.Create(customer)

	category := &model.Category{Name: "Семена", Slug: "semena", IsActive: true}
	testDB.Create(category)

	productA := &model.Product{
		Name:       "Семена томата",
		Slug:       "semena-tomata",
		Price:      decimal.NewFromFloat(10.00),
		Quantity:   5,
		CategoryID: category.ID,
		IsActive:   true,
	}
	testDB.Create(productA)

	productB := &model.Product{
		Name:       "Семена огурца",
		Slug:       "semena-ogurtsa",
		Price:      decimal.NewFromFloat(5.00),
		Quantity:   5,
		CategoryID: category.ID,
		IsActive:   true,
	}
	testDB.Create(productB)

	return orderService, testDB, notifier, customer, productA, productB
}

func fillCart(t *testing.T, testDB *gorm.DB, customer *model.Customer, items map[uint]int) {
	t.Helper()
	cartRepo := repository.NewCartRepository(testDB)
	cart := &model.Cart{UserID: &customer.ID}
	require.NoError(t, cartRepo.Create(cart))
	for productID, qty := range items {
		require.NoError(t, cartRepo.CreateItem(&model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
		}))
	}
}

func placeOrder(t *testing.T, svc OrderService, testDB *gorm.DB, customer *model.Customer, items map[uint]int) *model.Order {
	t.Helper()
	fillCart(t, testDB, customer, items)
	order, err := svc.Checkout(context.Background(), customer.ID, CartIdentity{UserID: &customer.ID}, CheckoutInput{
		ContactPhone:    "+79990001122",
		DeliveryAddress: "г. Москва, ул. Садовая, д. 1",
	})
	require.NoError(t, err)
	return order
}

func productQuantity(t *testing.T, testDB *gorm.DB, id uint) int {
	t.Helper()
	var product model.Product
	require.NoError(t, testDB.First(&product, id).Error)
	return product.Quantity
}

func TestOrderService_Checkout_Success(t *testing.T) {
	svc, testDB, notifier, customer, productA, productB := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{
		productA.ID: 2,
		productB.ID: 1,
	})

	assert.NotZero(t, order.ID)
	assert.Equal(t, model.OrderStatusNew, order.Status)
	assert.Equal(t, "25", order.TotalAmount.String())
	assert.Len(t, order.Items, 2)

	// Item prices are captured at checkout time.
	for _, item := range order.Items {
		switch item.ProductID {
		case productA.ID:
			assert.True(t, item.Price.Equal(decimal.NewFromFloat(10.00)))
		case productB.ID:
			assert.True(t, item.Price.Equal(decimal.NewFromFloat(5.00)))
		}
	}

	// The cart is destroyed.
	cartRepo := repository.NewCartRepository(testDB)
	_, err := cartRepo.FindByUserID(customer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Stock is untouched until confirmation.
	assert.Equal(t, 5, productQuantity(t, testDB, productA.ID))
	assert.Equal(t, 5, productQuantity(t, testDB, productB.ID))

	// Exactly one "new order" notification.
	assert.Equal(t, 1, notifier.count())
	assert.Contains(t, notifier.messages[0], "Новый заказ")
}

func TestOrderService_Checkout_PriceCapturedBeforeCatalogEdit(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 1})

	// Raising the catalog price later must not rewrite order history.
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", productA.ID).
		Update("price", decimal.NewFromFloat(99.99)).Error)

	reloaded, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Items[0].Price.Equal(decimal.NewFromFloat(10.00)))
	assert.Equal(t, "10", reloaded.TotalAmount.String())
}

func TestOrderService_Checkout_ContactPhoneFallsBackToProfile(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	fillCart(t, testDB, customer, map[uint]int{productA.ID: 1})

	order, err := svc.Checkout(context.Background(), customer.ID, CartIdentity{UserID: &customer.ID}, CheckoutInput{
		DeliveryAddress: "г. Москва, ул. Садовая, д. 1",
	})
	require.NoError(t, err)
	assert.Equal(t, customer.Phone, order.ContactPhone)

	// An explicit phone still wins over the profile one.
	fillCart(t, testDB, customer, map[uint]int{productA.ID: 1})
	order, err = svc.Checkout(context.Background(), customer.ID, CartIdentity{UserID: &customer.ID}, CheckoutInput{
		ContactPhone: "+79995556677",
	})
	require.NoError(t, err)
	assert.Equal(t, "+79995556677", order.ContactPhone)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	svc, _, notifier, customer, _, _ := setupOrderServiceTest(t)

	order, err := svc.Checkout(context.Background(), customer.ID, CartIdentity{UserID: &customer.ID}, CheckoutInput{
		ContactPhone: "+79990001122",
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Equal(t, 0, notifier.count())
}

func TestOrderService_UpdateStatus_ConfirmDecrementsStock(t *testing.T) {
	svc, testDB, notifier, customer, productA, productB := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{
		productA.ID: 2,
		productB.ID: 1,
	})

	updated, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "подтверждено")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, "подтверждено", updated.AdminComment)

	assert.Equal(t, 3, productQuantity(t, testDB, productA.ID))
	assert.Equal(t, 4, productQuantity(t, testDB, productB.ID))

	// One for checkout, one for the confirmation.
	assert.Equal(t, 2, notifier.count())
}

func TestOrderService_UpdateStatus_InsufficientStockAbortsWholly(t *testing.T) {
	svc, testDB, _, customer, productA, productB := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{
		productA.ID: 2,
		productB.ID: 3,
	})

	// Not enough of product B on the shelf.
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", productB.ID).
		Update("quantity", 1).Error)

	_, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "")
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productB.ID, stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	// Nothing changed: product A was not decremented, the order stayed new.
	assert.Equal(t, 5, productQuantity(t, testDB, productA.ID))
	assert.Equal(t, 1, productQuantity(t, testDB, productB.ID))

	reloaded, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, reloaded.Status)
}

func TestOrderService_UpdateStatus_CancelConfirmedRestocks(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 2})

	_, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, 3, productQuantity(t, testDB, productA.ID))

	updated, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusCancelled, "покупатель передумал")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 5, productQuantity(t, testDB, productA.ID))
}

func TestOrderService_UpdateStatus_CancelNewDoesNotRestock(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 2})

	// A new order never consumed stock, cancelling it must not credit any.
	updated, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 5, productQuantity(t, testDB, productA.ID))
}

func TestOrderService_UpdateStatus_SameStatusIdempotent(t *testing.T) {
	svc, testDB, notifier, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 2})

	_, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "")
	require.NoError(t, err)
	sentAfterConfirm := notifier.count()

	// Confirming again changes nothing and stays silent.
	updated, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, 3, productQuantity(t, testDB, productA.ID))
	assert.Equal(t, sentAfterConfirm, notifier.count())
}

func TestOrderService_UpdateStatus_InvalidTransitions(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 1})

	_, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusCancelled, "")
	require.NoError(t, err)

	// Cancelled is terminal.
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderStatus("shipped"), "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_UpdateStatus_NotFound(t *testing.T) {
	svc, _, _, _, _, _ := setupOrderServiceTest(t)

	_, err := svc.UpdateStatus(context.Background(), 12345, model.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_BulkUpdateStatus_PerOrderIsolation(t *testing.T) {
	svc, testDB, _, customer, productA, productB := setupOrderServiceTest(t)

	first := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 2})
	second := placeOrder(t, svc, testDB, customer, map[uint]int{productB.ID: 3})

	// The second order cannot be fulfilled.
	require.NoError(t, testDB.Model(&model.Product{}).Where("id = ?", productB.ID).
		Update("quantity", 1).Error)

	results := svc.BulkUpdateStatus(context.Background(), []uint{first.ID, second.ID}, model.OrderStatusConfirmed, "")
	require.Len(t, results, 2)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "insufficient stock")

	// The first order went through regardless.
	assert.Equal(t, 3, productQuantity(t, testDB, productA.ID))
	reloaded, _ := svc.GetOrder(first.ID)
	assert.Equal(t, model.OrderStatusConfirmed, reloaded.Status)
}

func TestOrderService_GetCustomerOrder_OwnershipEnforced(t *testing.T) {
	svc, testDB, _, customer, productA, _ := setupOrderServiceTest(t)

	order := placeOrder(t, svc, testDB, customer, map[uint]int{productA.ID: 1})

	other := &model.Customer{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Phone:        "+79990003344",
		Role:         model.RoleUser,
	}
	testDB.Create(other)

	_, err := svc.GetCustomerOrder(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrNotOrderOwner)

	got, err := svc.GetCustomerOrder(customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}
