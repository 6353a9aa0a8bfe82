package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/db"
)

func setupProductServiceTest(t *testing.T) (ProductService, *gorm.DB, *model.Category) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	svc := NewProductService(productRepo, categoryRepo)

	category := &model.Category{Name: "Удобрения", Slug: "udobreniya", IsActive: true}
	testDB.Create(category)

	return svc, testDB, category
}

func TestProductService_CreateProduct_SlugGenerated(t *testing.T) {
	svc, _, category := setupProductServiceTest(t)

	product, err := svc.CreateProduct(ProductInput{
		Name:       "Зола древесная",
		Price:      decimal.NewFromFloat(150.00),
		Quantity:   20,
		CategoryID: category.ID,
		IsActive:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "zola-drevesnaya", product.Slug)

	// The slug is unique across products.
	_, err = svc.CreateProduct(ProductInput{
		Name:       "Зола древесная",
		Price:      decimal.NewFromFloat(160.00),
		CategoryID: category.ID,
		IsActive:   true,
	})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestProductService_CreateProduct_InactivePersisted(t *testing.T) {
	svc, testDB, category := setupProductServiceTest(t)

	// An admin can create a product hidden from the storefront right away;
	// the false flag must survive the insert.
	product, err := svc.CreateProduct(ProductInput{
		Name:       "Черенок лопаты",
		Price:      decimal.NewFromFloat(90.00),
		Quantity:   4,
		CategoryID: category.ID,
		IsActive:   false,
	})
	require.NoError(t, err)

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.Available())

	inactiveCategory, err := svc.CreateCategory(CategoryInput{
		Name:     "Архив",
		IsActive: false,
	})
	require.NoError(t, err)

	var storedCategory model.Category
	require.NoError(t, testDB.First(&storedCategory, inactiveCategory.ID).Error)
	assert.False(t, storedCategory.IsActive)
}

func TestProductService_CreateProduct_CategoryMustExist(t *testing.T) {
	svc, _, _ := setupProductServiceTest(t)

	_, err := svc.CreateProduct(ProductInput{
		Name:       "Товар",
		Price:      decimal.NewFromFloat(10.00),
		CategoryID: 9999,
		IsActive:   true,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductService_ListProducts_Filters(t *testing.T) {
	svc, testDB, category := setupProductServiceTest(t)

	other := &model.Category{Name: "Грунты", Slug: "grunty", IsActive: true}
	testDB.Create(other)

	seed := []model.Product{
		{Name: "Компост", Slug: "kompost", Price: decimal.NewFromFloat(200), Quantity: 5, CategoryID: category.ID, IsActive: true},
		{Name: "Перегной", Slug: "peregnoy", Price: decimal.NewFromFloat(300), Quantity: 0, CategoryID: category.ID, IsActive: true, IsFeatured: true},
		{Name: "Торф", Slug: "torf", Price: decimal.NewFromFloat(250), Quantity: 8, CategoryID: other.ID, IsActive: true},
		{Name: "Снятый с продажи", Slug: "snyatyi", Price: decimal.NewFromFloat(100), Quantity: 3, CategoryID: category.ID, IsActive: false},
	}
	for i := range seed {
		require.NoError(t, testDB.Create(&seed[i]).Error)
	}

	// Inactive products are hidden from the storefront.
	products, total, err := svc.ListProducts(repository.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, products, 3)

	// Category filter.
	products, total, err = svc.ListProducts(repository.ProductFilter{ActiveOnly: true, CategoryID: &category.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// In-stock filter.
	products, total, err = svc.ListProducts(repository.ProductFilter{ActiveOnly: true, InStock: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range products {
		assert.Greater(t, p.Quantity, 0)
	}

	// Featured filter.
	_, total, err = svc.ListProducts(repository.ProductFilter{ActiveOnly: true, Featured: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Search by name.
	products, _, err = svc.ListProducts(repository.ProductFilter{ActiveOnly: true, Search: "Торф"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Торф", products[0].Name)

	// Price sorting.
	products, _, err = svc.ListProducts(repository.ProductFilter{ActiveOnly: true, SortBy: "price_asc"})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Компост", products[0].Name)
	assert.Equal(t, "Перегной", products[2].Name)
}

func TestProductService_DeleteCategory_RefusesNonEmpty(t *testing.T) {
	svc, testDB, category := setupProductServiceTest(t)

	product := &model.Product{
		Name: "Зола", Slug: "zola",
		Price: decimal.NewFromFloat(100), CategoryID: category.ID, IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	err := svc.DeleteCategory(category.ID)
	assert.ErrorIs(t, err, ErrCategoryNotEmpty)

	require.NoError(t, testDB.Delete(product).Error)
	require.NoError(t, svc.DeleteCategory(category.ID))
}

func TestProductService_DiscountDerivedFromOldPrice(t *testing.T) {
	svc, _, category := setupProductServiceTest(t)

	oldPrice := decimal.NewFromFloat(200.00)
	product, err := svc.CreateProduct(ProductInput{
		Name:       "Мульча",
		Price:      decimal.NewFromFloat(150.00),
		OldPrice:   &oldPrice,
		Quantity:   5,
		CategoryID: category.ID,
		IsActive:   true,
	})
	require.NoError(t, err)

	assert.True(t, product.HasDiscount())
	assert.Equal(t, 25, product.DiscountPercent())
}
