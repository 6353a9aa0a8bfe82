package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ProductRequest struct {
	Name             string  `json:"name" binding:"required"`
	Slug             string  `json:"slug"`
	Description      string  `json:"description"`
	ShortDescription string  `json:"short_description"`
	Price            string  `json:"price" binding:"required"`
	OldPrice         *string `json:"old_price"`
	Quantity         int     `json:"quantity" binding:"gte=0"`
	CategoryID       uint    `json:"category_id" binding:"required"`
	ImageURL         string  `json:"image_url"`
	IsActive         *bool   `json:"is_active"`
	IsFeatured       bool    `json:"is_featured"`
}

type ProductImagesRequest struct {
	Images []struct {
		ImageURL string `json:"image_url" binding:"required"`
		AltText  string `json:"alt_text"`
	} `json:"images"`
}

func (req *ProductRequest) toInput() (service.ProductInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return service.ProductInput{}, errors.New("invalid price")
	}

	var oldPrice *decimal.Decimal
	if req.OldPrice != nil && *req.OldPrice != "" {
		p, err := decimal.NewFromString(*req.OldPrice)
		if err != nil || p.IsNegative() {
			return service.ProductInput{}, errors.New("invalid old price")
		}
		oldPrice = &p
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return service.ProductInput{
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            price,
		OldPrice:         oldPrice,
		Quantity:         req.Quantity,
		CategoryID:       req.CategoryID,
		ImageURL:         req.ImageURL,
		IsActive:         isActive,
		IsFeatured:       req.IsFeatured,
	}, nil
}

// ListProducts returns the catalog with filters and pagination
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.ProductFilter{
		Search:     c.Query("search"),
		InStock:    c.Query("in_stock") == "true",
		Featured:   c.Query("featured") == "true",
		SortBy:     c.Query("sort"),
		ActiveOnly: true,
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	// Admins see inactive products too.
	if role, ok := middleware.GetUserRole(c); ok && role == model.RoleAdmin {
		filter.ActiveOnly = c.Query("active_only") == "true"
	}

	if slug := c.Query("category"); slug != "" {
		category, err := ctrl.productService.GetCategoryBySlug(slug)
		if err != nil {
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
			return
		}
		filter.CategoryID = &category.ID
	}

	if v := c.Query("min_price"); v != "" {
		if p, err := decimal.NewFromString(v); err == nil {
			filter.MinPrice = &p
		}
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := decimal.NewFromString(v); err == nil {
			filter.MaxPrice = &p
		}
	}

	products, total, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		log.Error("Failed to list products", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":  products,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// GetProduct returns a product by numeric ID or slug
// GET /api/v1/products/:idOrSlug
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")

	var product *model.Product
	var err error
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 32); convErr == nil {
		product, err = ctrl.productService.GetProduct(uint(id))
	} else {
		product, err = ctrl.productService.GetProductBySlug(idOrSlug)
	}
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	if role, ok := middleware.GetUserRole(c); !product.IsActive && (!ok || role != model.RoleAdmin) {
		apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct creates a product (admin)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные товара")
		return
	}

	input, err := req.toInput()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректная цена")
		return
	}

	product, err := ctrl.productService.CreateProduct(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
		case errors.Is(err, service.ErrSlugTaken):
			apperrors.Conflict(c, apperrors.ProductSlugExists, "Такой адрес страницы уже используется")
		default:
			log.Error("Failed to create product", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct updates a product (admin)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор товара")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные товара")
		return
	}

	input, err := req.toInput()
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректная цена")
		return
	}

	product, err := ctrl.productService.UpdateProduct(uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
		case errors.Is(err, service.ErrSlugTaken):
			apperrors.Conflict(c, apperrors.ProductSlugExists, "Такой адрес страницы уже используется")
		default:
			log.Error("Failed to update product", err, map[string]interface{}{
				"product_id": id,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct removes a product (admin)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор товара")
		return
	}

	if err := ctrl.productService.DeleteProduct(uint(id)); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Товар удалён"})
}

// SetProductImages replaces the product gallery (admin)
// PUT /api/v1/admin/products/:id/images
func (ctrl *ProductController) SetProductImages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор товара")
		return
	}

	var req ProductImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные галереи")
		return
	}

	images := make([]model.ProductImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, model.ProductImage{
			ImageURL: img.ImageURL,
			AltText:  img.AltText,
		})
	}

	if err := ctrl.productService.SetProductImages(uint(id), images); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Товар не найден")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Галерея обновлена"})
}
