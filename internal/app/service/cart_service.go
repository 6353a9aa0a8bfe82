package service

import (
	"errors"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is unavailable")
	ErrInvalidIdentity    = errors.New("cart identity requires a user or a session key")
)

// CartIdentity names the owner of a cart: an authenticated customer or an
// anonymous session cookie, never both.
type CartIdentity struct {
	UserID     *uint
	SessionKey *string
}

func (i CartIdentity) valid() bool {
	return (i.UserID != nil) != (i.SessionKey != nil)
}

type CartService interface {
	GetOrCreate(identity CartIdentity) (*model.Cart, error)
	AddProduct(identity CartIdentity, productID uint) (*model.Cart, error)
	UpdateQuantity(identity CartIdentity, productID uint, quantity int) (*model.Cart, error)
	RemoveProduct(identity CartIdentity, productID uint) (*model.Cart, error)
	Clear(identity CartIdentity) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetOrCreate(identity CartIdentity) (*model.Cart, error) {
	if !identity.valid() {
		return nil, ErrInvalidIdentity
	}

	cart, err := s.find(identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = &model.Cart{
		UserID:     identity.UserID,
		SessionKey: identity.SessionKey,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}

	logger.Debug("Cart created", map[string]interface{}{
		"cart_id": cart.ID,
	})
	return cart, nil
}

func (s *cartService) find(identity CartIdentity) (*model.Cart, error) {
	if identity.UserID != nil {
		return s.cartRepo.FindByUserID(*identity.UserID)
	}
	return s.cartRepo.FindBySessionKey(*identity.SessionKey)
}

// AddProduct puts one unit of the product into the cart. Adding a product
// already in the cart bumps its quantity instead of creating a second row.
// Stock sufficiency is not checked here, only at order confirmation.
func (s *cartService) AddProduct(identity CartIdentity, productID uint) (*model.Cart, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Available() {
		return nil, ErrProductUnavailable
	}

	cart, err := s.GetOrCreate(identity)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindItem(cart.ID, productID)
	switch {
	case err == nil:
		item.Quantity++
		if err := s.cartRepo.UpdateItem(item); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  1,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	logger.Debug("Product added to cart", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": productID,
		"quantity":   item.Quantity,
	})
	return s.cartRepo.FindByID(cart.ID)
}

// UpdateQuantity overwrites the line quantity. A quantity of zero or less
// removes the line.
func (s *cartService) UpdateQuantity(identity CartIdentity, productID uint, quantity int) (*model.Cart, error) {
	cart, err := s.find(identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	item, err := s.cartRepo.FindItem(cart.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
	} else {
		item.Quantity = quantity
		if err := s.cartRepo.UpdateItem(item); err != nil {
			return nil, err
		}
	}

	return s.cartRepo.FindByID(cart.ID)
}

func (s *cartService) RemoveProduct(identity CartIdentity, productID uint) (*model.Cart, error) {
	return s.UpdateQuantity(identity, productID, 0)
}

func (s *cartService) Clear(identity CartIdentity) error {
	cart, err := s.find(identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartNotFound
		}
		return err
	}
	return s.cartRepo.DeleteItems(cart.ID)
}
