package service

import (
	"context"
	"errors"
	"time"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"github.com/avolkov/gardenshop-backend/pkg/redis"
	"github.com/avolkov/gardenshop-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrPhoneAlreadyExists = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCustomerNotFound   = errors.New("customer not found")
)

type RegisterInput struct {
	Email      string
	Password   string
	Phone      string
	FirstName  string
	LastName   string
	Patronymic string
	Address    string
}

type UpdateProfileInput struct {
	Phone      *string
	FirstName  *string
	LastName   *string
	Patronymic *string
	Address    *string
}

type AuthService interface {
	Register(input RegisterInput) (*model.Customer, *util.TokenPair, error)
	Login(email, password string) (*model.Customer, *util.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(refreshToken string) (*util.TokenPair, error)
	GetProfile(customerID uint) (*model.Customer, error)
	UpdateProfile(customerID uint, input UpdateProfileInput) (*model.Customer, error)
}

type authService struct {
	customerRepo  repository.CustomerRepository
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(customerRepo repository.CustomerRepository, jwtSecret string, accessExpiry, refreshExpiry time.Duration) AuthService {
	return &authService{
		customerRepo:  customerRepo,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(input RegisterInput) (*model.Customer, *util.TokenPair, error) {
	logger.Info("Registering customer", map[string]interface{}{
		"email": input.Email,
	})

	if _, err := s.customerRepo.FindByEmail(input.Email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	if input.Phone != "" {
		if _, err := s.customerRepo.FindByPhone(input.Phone); err == nil {
			return nil, nil, ErrPhoneAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, nil, err
	}

	customer := &model.Customer{
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        input.Phone,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Patronymic:   input.Patronymic,
		Address:      input.Address,
		Role:         model.RoleUser,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, nil, err
	}

	tokens, err := util.GenerateTokenPair(customer.ID, customer.Email, string(customer.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate token pair", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, nil, err
	}

	logger.Info("Customer registered", map[string]interface{}{
		"customer_id": customer.ID,
		"email":       customer.Email,
	})
	return customer, tokens, nil
}

func (s *authService) Login(email, password string) (*model.Customer, *util.TokenPair, error) {
	customer, err := s.customerRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(customer.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(customer.ID, customer.Email, string(customer.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Customer logged in", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return customer, tokens, nil
}

// Logout blacklists the access token for its remaining lifetime.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		// Expired or malformed tokens are already unusable.
		return nil
	}

	ttl := util.TokenRemainingTTL(claims)
	if err := redis.BlacklistToken(ctx, accessToken, ttl); err != nil {
		logger.Error("Failed to blacklist token", err, map[string]interface{}{
			"customer_id": claims.UserID,
		})
		return err
	}

	logger.Info("Customer logged out", map[string]interface{}{
		"customer_id": claims.UserID,
	})
	return nil
}

func (s *authService) RefreshToken(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "refresh" {
		return nil, util.ErrInvalidToken
	}

	customer, err := s.customerRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return util.GenerateTokenPair(customer.ID, customer.Email, string(customer.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
}

func (s *authService) GetProfile(customerID uint) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *authService) UpdateProfile(customerID uint, input UpdateProfileInput) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	if input.Phone != nil && *input.Phone != customer.Phone {
		if *input.Phone != "" {
			if existing, err := s.customerRepo.FindByPhone(*input.Phone); err == nil && existing.ID != customerID {
				return nil, ErrPhoneAlreadyExists
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		customer.Phone = *input.Phone
	}
	if input.FirstName != nil {
		customer.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		customer.LastName = *input.LastName
	}
	if input.Patronymic != nil {
		customer.Patronymic = *input.Patronymic
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return customer, nil
}
