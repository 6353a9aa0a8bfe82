package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/db"
	"github.com/avolkov/gardenshop-backend/pkg/util"
)

const testJWTSecret = "test-secret-key-for-auth-service"

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	customerRepo := repository.NewCustomerRepository(testDB)
	authService := NewAuthService(customerRepo, testJWTSecret, 15*time.Minute, 7*24*time.Hour)

	return authService, testDB
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:      "ivan@example.com",
		Password:   "correct-horse-battery",
		Phone:      "+79990001122",
		FirstName:  "Иван",
		LastName:   "Петров",
		Patronymic: "Сергеевич",
		Address:    "г. Москва",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	customer, tokens, err := svc.Register(registerInput())
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Equal(t, model.RoleUser, customer.Role)
	assert.NotEqual(t, "correct-horse-battery", customer.PasswordHash)
	require.NotNil(t, tokens)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.UserID)
	assert.Equal(t, "access", claims.Subject)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	input := registerInput()
	input.Phone = "+79990009999"
	_, _, err = svc.Register(input)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Register_DuplicatePhone(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	input := registerInput()
	input.Email = "other@example.com"
	_, _, err = svc.Register(input)
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	customer, tokens, err := svc.Login("ivan@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "ivan@example.com", customer.Email)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, _, err = svc.Login("ivan@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshToken(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	_, tokens, err := svc.Register(registerInput())
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token is not a refresh token.
	_, err = svc.RefreshToken(tokens.AccessToken)
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	customer, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	newAddress := "г. Тула, ул. Весенняя, д. 5"
	updated, err := svc.UpdateProfile(customer.ID, UpdateProfileInput{
		Address: &newAddress,
	})
	require.NoError(t, err)
	assert.Equal(t, newAddress, updated.Address)
	assert.Equal(t, "Иван", updated.FirstName)

	_, err = svc.UpdateProfile(9999, UpdateProfileInput{Address: &newAddress})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
