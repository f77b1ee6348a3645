package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
)

// CatalogHandler обслуживает витрину и админские правки каталога.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler создаёт обработчик каталога.
func NewCatalogHandler(catalogSvc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc}
}

// ListProducts отдаёт товары витрины; параметр category сужает выборку.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var (
		products []domain.Product
		err      error
	)
	if categoryID := c.Query("category"); categoryID != "" {
		products, err = h.catalog.ListProductsByCategory(c.Request.Context(), categoryID, limitParam(c))
	} else {
		products, err = h.catalog.ListProducts(limitParam(c))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

// SearchProducts ищет товары по префиксу имени.
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"products": []productResponse{}})
		return
	}
	products, err := h.catalog.SearchProducts(q, limitParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(products)})
}

// GetProduct отдаёт товар по id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// ListCategories отдаёт разделы каталога (через кеш).
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, toCategoryResponse(cat))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

type productReq struct {
	CategoryID  string          `json:"category_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
}

// CreateProduct добавляет товар (админ).
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), actorFrom(c), domain.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

// UpdateProduct правит товар (админ). Сток — обычное CRUD-поле здесь;
// складские движения заказов идут ledger-операциями.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), actorFrom(c), domain.Product{
		ID:          c.Param("id"),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct удаляет товар (админ).
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type categoryReq struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// CreateCategory добавляет раздел (админ).
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), actorFrom(c), domain.Category{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory правит раздел (админ).
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), actorFrom(c), domain.Category{
		ID:   c.Param("id"),
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory удаляет раздел (админ).
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
