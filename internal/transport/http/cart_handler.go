package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
)

// CartHandler обслуживает корзину вызывающего пользователя.
type CartHandler struct {
	cart *cart.Service
}

// NewCartHandler создаёт обработчик корзины.
func NewCartHandler(cartSvc *cart.Service) *CartHandler {
	return &CartHandler{cart: cartSvc}
}

// Get отдаёт корзину с актуальными данными товаров.
func (h *CartHandler) Get(c *gin.Context) {
	lines, err := h.cart.Get(actorFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, cartLineResponse{
			Product: toProductResponse(line.Product),
			Qty:     line.Qty,
			Clamped: line.Clamped,
		})
	}
	c.JSON(http.StatusOK, gin.H{"lines": out})
}

type upsertCartReq struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int32  `json:"qty" binding:"required"`
}

// Upsert добавляет или меняет позицию; количество урезается до стока.
func (h *CartHandler) Upsert(c *gin.Context) {
	var req upsertCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	line, err := h.cart.Upsert(actorFrom(c).UserID, req.ProductID, req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartLineResponse{
		Product: toProductResponse(line.Product),
		Qty:     line.Qty,
		Clamped: line.Clamped,
	})
}

// Remove удаляет позицию корзины.
func (h *CartHandler) Remove(c *gin.Context) {
	if err := h.cart.Remove(actorFrom(c).UserID, c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear очищает корзину.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.Clear(actorFrom(c).UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
