package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type CatalogController struct {
	Catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

// GetAllProducts -> menu untuk kasir. ?all=true ikut menampilkan produk
// yang sedang tidak tersedia.
func (cc *CatalogController) GetAllProducts(c *gin.Context) {
	products, err := cc.Catalog.ListProducts(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// CreateProduct -> khusus manager
func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var body struct {
		Name       string       `json:"name" binding:"required"`
		Price      models.Money `json:"price"`
		CategoryID *uint        `json:"category_id"`
		Available  *bool        `json:"available"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	product := models.Product{
		Name:       body.Name,
		Price:      body.Price,
		CategoryID: body.CategoryID,
		Available:  true,
	}
	if body.Available != nil {
		product.Available = *body.Available
	}
	if err := cc.Catalog.CreateProduct(c.Request.Context(), &product); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// SetAvailability -> nyalakan / matikan produk dari menu
func (cc *CatalogController) SetAvailability(c *gin.Context) {
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	product, err := cc.Catalog.SetAvailability(c.Request.Context(), productID, *body.Available)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// GetAllCategories
func (cc *CatalogController) GetAllCategories(c *gin.Context) {
	categories, err := cc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All categories", categories)
}

// CreateCategory
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.Category{Name: body.Name}
	if err := cc.Catalog.CreateCategory(c.Request.Context(), &category); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}
