package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type CategoryController struct {
	productService service.ProductService
}

func NewCategoryController(productService service.ProductService) *CategoryController {
	return &CategoryController{
		productService: productService,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

// ListCategories returns categories, active only for non-admins
// GET /api/v1/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	activeOnly := true
	if role, ok := middleware.GetUserRole(c); ok && role == model.RoleAdmin {
		activeOnly = false
	}

	categories, err := ctrl.productService.ListCategories(activeOnly)
	if err != nil {
		log.Error("Failed to list categories", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns a category by slug
// GET /api/v1/categories/:slug
func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	category, err := ctrl.productService.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategory creates a category (admin)
// POST /api/v1/admin/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные категории")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := ctrl.productService.CreateCategory(service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "Такой адрес страницы уже используется")
			return
		}
		log.Error("Failed to create category", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory updates a category (admin)
// PUT /api/v1/admin/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор категории")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Некорректные данные категории")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := ctrl.productService.UpdateCategory(uint(id), service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    isActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
		case errors.Is(err, service.ErrSlugTaken):
			apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "Такой адрес страницы уже используется")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes an empty category (admin)
// DELETE /api/v1/admin/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор категории")
		return
	}

	if err := ctrl.productService.DeleteCategory(uint(id)); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Категория не найдена")
		case errors.Is(err, service.ErrCategoryNotEmpty):
			apperrors.Conflict(c, apperrors.CategoryNotEmpty, "В категории ещё есть товары")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Категория удалена"})
}
