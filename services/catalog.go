package services

import (
	"context"
	"strings"

	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// CatalogService reads and maintains the product menu in the local
// database.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListProducts returns products ordered by name. With availableOnly set
// it hides products that are switched off.
func (cs *CatalogService) ListProducts(ctx context.Context, availableOnly bool) ([]models.Product, error) {
	var products []models.Product
	q := cs.db.WithContext(ctx).Preload("Category").Order("name asc")
	if availableOnly {
		q = q.Where("available = ?", true)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, mapDBError("list_products", err, "products not found")
	}
	return products, nil
}

func (cs *CatalogService) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	if err := cs.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return models.Product{}, mapDBError("get_product", err, "product %d not found", id)
	}
	return product, nil
}

// CreateProduct validates and stores a new menu entry.
func (cs *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return NewValidationError("create_product", "product name is required")
	}
	if product.Price < 0 {
		return NewValidationError("create_product", ErrMsgInvalidPrice, product.ID)
	}
	if err := cs.db.WithContext(ctx).Create(product).Error; err != nil {
		return mapDBError("create_product", err, "product not created")
	}
	utils.InfoLogger.Printf("Product created: %s (%s)", product.Name, utils.FormatCurrencyVND(product.Price.Int64()))
	return nil
}

// Lookup makes the service usable as a ProductCatalog when a cart is
// rebuilt from a stored order.
func (cs *CatalogService) Lookup(productID uint) (models.Product, bool) {
	product, err := cs.GetProduct(context.Background(), productID)
	if err != nil {
		return models.Product{}, false
	}
	return product, true
}

func (cs *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := cs.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, mapDBError("list_categories", err, "categories not found")
	}
	return categories, nil
}

func (cs *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return NewValidationError("create_category", "category name is required")
	}
	if err := cs.db.WithContext(ctx).Create(category).Error; err != nil {
		return mapDBError("create_category", err, "category not created")
	}
	return nil
}

// SetAvailability switches a product on or off the menu.
func (cs *CatalogService) SetAvailability(ctx context.Context, id uint, available bool) (models.Product, error) {
	res := cs.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("available", available)
	if res.Error != nil {
		return models.Product{}, mapDBError("set_availability", res.Error, "product %d not updated", id)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, NewNotFoundError("set_availability", "product %d not found", id)
	}
	return cs.GetProduct(ctx, id)
}
