package controller

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type ImportController struct {
	importService service.ImportService
	maxFileSize   int64
}

func NewImportController(importService service.ImportService, maxFileSize int64) *ImportController {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &ImportController{
		importService: importService,
		maxFileSize:   maxFileSize,
	}
}

// ImportProducts accepts an xlsx upload and runs the bulk product import
// POST /api/v1/admin/products/import
func (ctrl *ImportController) ImportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "Не передан файл импорта")
		return
	}

	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".xlsx" {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Поддерживаются только файлы .xlsx")
		return
	}
	if fileHeader.Size > ctrl.maxFileSize {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Файл слишком большой")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err, nil)
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	result, err := ctrl.importService.ImportProducts(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, service.ErrEmptySheet) {
			apperrors.BadRequest(c, apperrors.ImportEmptySheet, "В файле нет строк с товарами")
			return
		}
		log.Error("Product import failed", err, map[string]interface{}{
			"filename": fileHeader.Filename,
		})
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "Не удалось обработать файл импорта")
		return
	}

	log.Info("Product import completed", map[string]interface{}{
		"filename": fileHeader.Filename,
		"created":  result.Created,
		"errors":   len(result.Errors),
	})

	c.JSON(http.StatusOK, gin.H{"result": result})
}
