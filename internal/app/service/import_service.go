package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"github.com/avolkov/gardenshop-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var ErrEmptySheet = errors.New("spreadsheet has no data rows")

// Spreadsheet column headers as the back office fills them in.
const (
	colName        = "Название"
	colPrice       = "Цена"
	colDescription = "Описание"
	colShortDesc   = "Краткое описание"
	colOldPrice    = "Старая цена"
	colQuantity    = "Количество"
	colCategory    = "Категория"
	colImage       = "Изображение"
)

const defaultCategoryName = "Без категории"

// ImageStorage persists a downloaded image and returns its public URL.
type ImageStorage interface {
	UploadBytes(ctx context.Context, folder, filename string, data []byte) (string, error)
}

// ImportResult summarizes one spreadsheet run. Errors carry the 1-based
// spreadsheet row number so the admin can fix the file.
type ImportResult struct {
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

type ImportService interface {
	ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type importService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	storage      ImageStorage
	httpClient   *http.Client
}

func NewImportService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, storage ImageStorage, imageTimeout time.Duration) ImportService {
	if imageTimeout <= 0 {
		imageTimeout = 10 * time.Second
	}
	return &importService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		storage:      storage,
		httpClient:   &http.Client{Timeout: imageTimeout},
	}
}

// ImportProducts reads an xlsx spreadsheet and creates one product per data
// row. A bad row is recorded and skipped, the rest of the batch continues.
func (s *importService) ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		columns[strings.TrimSpace(header)] = i
	}

	logger.Info("Starting product import", map[string]interface{}{
		"sheet": sheet,
		"rows":  len(rows) - 1,
	})

	result := &ImportResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header row
		if err := s.importRow(ctx, columns, row, rowNum); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("строка %d: %s", rowNum, err))
			continue
		}
		result.Created++
	}

	logger.Info("Product import finished", map[string]interface{}{
		"created": result.Created,
		"errors":  len(result.Errors),
	})
	return result, nil
}

func (s *importService) importRow(ctx context.Context, columns map[string]int, row []string, rowNum int) error {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := cell(colName)
	if name == "" {
		return errors.New("не указано название товара")
	}

	priceStr := cell(colPrice)
	if priceStr == "" {
		return errors.New("не указана цена")
	}
	price, err := parsePrice(priceStr)
	if err != nil {
		return fmt.Errorf("некорректная цена %q", priceStr)
	}
	if price.IsNegative() {
		return errors.New("цена не может быть отрицательной")
	}

	var oldPrice *decimal.Decimal
	if v := cell(colOldPrice); v != "" {
		p, err := parsePrice(v)
		if err != nil || p.IsNegative() {
			return fmt.Errorf("некорректная старая цена %q", v)
		}
		oldPrice = &p
	}

	quantity := 0
	if v := cell(colQuantity); v != "" {
		quantity, err = strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("некорректное количество %q", v)
		}
		if quantity < 0 {
			return errors.New("количество не может быть отрицательным")
		}
	}

	categoryName := cell(colCategory)
	if categoryName == "" {
		categoryName = defaultCategoryName
	}
	category, err := s.getOrCreateCategory(categoryName)
	if err != nil {
		return fmt.Errorf("не удалось создать категорию %q", categoryName)
	}

	product := &model.Product{
		Name:             name,
		Slug:             s.uniqueSlug(name, rowNum),
		Description:      cell(colDescription),
		ShortDescription: cell(colShortDesc),
		Price:            price,
		OldPrice:         oldPrice,
		Quantity:         quantity,
		CategoryID:       category.ID,
		IsActive:         true,
	}

	// Image failures never fail the row, the product just ships without one.
	if imageURL := cell(colImage); imageURL != "" {
		if stored := s.fetchImage(ctx, imageURL, product.Slug); stored != "" {
			product.ImageURL = stored
		}
	}

	if err := s.productRepo.Create(product); err != nil {
		return errors.New("не удалось сохранить товар")
	}
	return nil
}

func (s *importService) getOrCreateCategory(name string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByName(name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = &model.Category{
		Name:     name,
		Slug:     util.Slugify(name),
		IsActive: true,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// uniqueSlug suffixes the row number when the plain slug is already taken,
// so re-imports of the same file do not collide forever.
func (s *importService) uniqueSlug(name string, rowNum int) string {
	slug := util.Slugify(name)
	if _, err := s.productRepo.FindBySlug(slug); errors.Is(err, gorm.ErrRecordNotFound) {
		return slug
	}
	return fmt.Sprintf("%s-%d", slug, rowNum)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// fetchImage downloads an image over http(s) and stores it. Any failure is
// logged and swallowed, returning an empty URL.
func (s *importService) fetchImage(ctx context.Context, rawURL, slug string) string {
	if s.storage == nil {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		logger.Warn("Skipping non-http image URL", map[string]interface{}{
			"url": rawURL,
		})
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warn("Failed to download product image", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Image download returned non-200 status", map[string]interface{}{
			"url":    rawURL,
			"status": resp.StatusCode,
		})
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return ""
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	if !imageExtensions[ext] {
		ext = ".jpg"
	}

	stored, err := s.storage.UploadBytes(ctx, "products", slug+ext, data)
	if err != nil {
		logger.Warn("Failed to store product image", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return ""
	}
	return stored
}

// parsePrice accepts both "1234.50" and the "1 234,50" formatting common in
// exported spreadsheets.
func parsePrice(v string) (decimal.Decimal, error) {
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, ",", ".")
	return decimal.NewFromString(v)
}
