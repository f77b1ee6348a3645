package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// writeError переводит доменные ошибки в HTTP-статусы.
// Текст бизнес-ошибок отдаётся как есть: нехватка стока называет товар,
// остаток и запрошенное количество.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Инфраструктурные детали наружу не уходят.
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case domain.IsInsufficientStock(err),
		errors.Is(err, domain.ErrOrderAlreadyCancelled),
		errors.Is(err, domain.ErrProductReferenced),
		errors.Is(err, domain.ErrOrderVersionConflict),
		errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCartLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrQtyInvalid),
		errors.Is(err, domain.ErrShippingAddressRequired),
		errors.Is(err, domain.ErrUserRequired),
		errors.Is(err, domain.ErrProductNameRequired),
		errors.Is(err, domain.ErrCategoryRequired),
		errors.Is(err, domain.ErrPriceNegative),
		errors.Is(err, domain.ErrStockNegative),
		errors.Is(err, domain.ErrLineQtyInvalid),
		errors.Is(err, domain.ErrIdempotencyKeyRequired):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
