package service

import (
	"errors"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"github.com/avolkov/gardenshop-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryNotEmpty = errors.New("category still has products")
	ErrSlugTaken        = errors.New("slug already in use")
)

type ProductInput struct {
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	OldPrice         *decimal.Decimal
	Quantity         int
	CategoryID       uint
	ImageURL         string
	IsActive         bool
	IsFeatured       bool
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
	IsActive    bool
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProduct(id uint) (*model.Product, error)
	GetProductBySlug(slug string) (*model.Product, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(id uint) error
	SetProductImages(productID uint, images []model.ProductImage) error

	ListCategories(activeOnly bool) ([]model.Category, error)
	GetCategoryBySlug(slug string) (*model.Category, error)
	CreateCategory(input CategoryInput) (*model.Category, error)
	UpdateCategory(id uint, input CategoryInput) (*model.Category, error)
	DeleteCategory(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return s.productRepo.List(filter)
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProductBySlug(slug string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	slug := input.Slug
	if slug == "" {
		slug = util.Slugify(input.Name)
	}
	if _, err := s.productRepo.FindBySlug(slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product := &model.Product{
		Name:             input.Name,
		Slug:             slug,
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		Price:            input.Price,
		OldPrice:         input.OldPrice,
		Quantity:         input.Quantity,
		CategoryID:       input.CategoryID,
		ImageURL:         input.ImageURL,
		IsActive:         input.IsActive,
		IsFeatured:       input.IsFeatured,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	slug := input.Slug
	if slug == "" {
		slug = util.Slugify(input.Name)
	}
	if slug != product.Slug {
		if existing, err := s.productRepo.FindBySlug(slug); err == nil && existing.ID != id {
			return nil, ErrSlugTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	product.Name = input.Name
	product.Slug = slug
	product.Description = input.Description
	product.ShortDescription = input.ShortDescription
	product.Price = input.Price
	product.OldPrice = input.OldPrice
	product.Quantity = input.Quantity
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL
	product.IsActive = input.IsActive
	product.IsFeatured = input.IsFeatured

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) DeleteProduct(id uint) error {
	if _, err := s.GetProduct(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}

func (s *productService) SetProductImages(productID uint, images []model.ProductImage) error {
	if _, err := s.GetProduct(productID); err != nil {
		return err
	}
	return s.productRepo.ReplaceImages(productID, images)
}

func (s *productService) ListCategories(activeOnly bool) ([]model.Category, error) {
	return s.categoryRepo.List(activeOnly)
}

func (s *productService) GetCategoryBySlug(slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *productService) CreateCategory(input CategoryInput) (*model.Category, error) {
	slug := input.Slug
	if slug == "" {
		slug = util.Slugify(input.Name)
	}
	if _, err := s.categoryRepo.FindBySlug(slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &model.Category{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		IsActive:    input.IsActive,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *productService) UpdateCategory(id uint, input CategoryInput) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	slug := input.Slug
	if slug == "" {
		slug = util.Slugify(input.Name)
	}
	if slug != category.Slug {
		if existing, err := s.categoryRepo.FindBySlug(slug); err == nil && existing.ID != id {
			return nil, ErrSlugTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	category.Name = input.Name
	category.Slug = slug
	category.Description = input.Description
	category.ImageURL = input.ImageURL
	category.IsActive = input.IsActive

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *productService) DeleteCategory(id uint) error {
	if _, err := s.categoryRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	filter := repository.ProductFilter{CategoryID: &id, Page: 1, PageSize: 1}
	_, total, err := s.productRepo.List(filter)
	if err != nil {
		return err
	}
	if total > 0 {
		return ErrCategoryNotEmpty
	}

	return s.categoryRepo.Delete(id)
}
