package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
)

// OrderHandler обслуживает оформление и жизненный цикл заказов.
type OrderHandler struct {
	checkout    *checkout.Service
	orders      *orders.Service
	idempotency domain.IdempotencyRepository // nil отключает защиту от повторной отправки
	logger      *log.Entry
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(
	checkoutSvc *checkout.Service,
	ordersSvc *orders.Service,
	idempotency domain.IdempotencyRepository,
	logger *log.Entry,
) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-orders")
	}
	return &OrderHandler{
		checkout:    checkoutSvc,
		orders:      ordersSvc,
		idempotency: idempotency,
		logger:      logger,
	}
}

type createOrderReq struct {
	ShippingAddressID string `json:"shipping_address_id" binding:"required"`
	BillingAddressID  string `json:"billing_address_id"`
	Note              string `json:"note"`
}

// CreateOrder оформляет заказ из корзины вызывающего.
// Заголовок Idempotency-Key защищает от двойной отправки формы: повтор с тем же
// ключом получает сохранённый ответ вместо второго заказа.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor := actorFrom(c)
	if actor.Anonymous() {
		writeError(c, domain.ErrForbidden)
		return
	}

	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey != "" && h.idempotency != nil {
		if done := h.beginIdempotent(c, idemKey, actor.UserID, req); done {
			return
		}
	}

	order, err := h.checkout.PlaceOrder(checkout.Request{
		UserID:            actor.UserID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		Note:              req.Note,
	})
	if err != nil {
		h.finishIdempotent(idemKey, err)
		writeError(c, err)
		return
	}

	resp := toOrderResponse(order)
	if idemKey != "" && h.idempotency != nil {
		body, _ := json.Marshal(resp)
		if markErr := h.idempotency.MarkDone(idemKey, body, http.StatusCreated); markErr != nil {
			h.logger.WithError(markErr).WithField("key", idemKey).Warn("failed to mark idempotency key done")
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// beginIdempotent регистрирует ключ; true — ответ уже записан (реплей или конфликт).
func (h *OrderHandler) beginIdempotent(c *gin.Context, key, userID string, req createOrderReq) bool {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(userID+"\n"), payload...))
	hash := hex.EncodeToString(sum[:])

	record, err := h.idempotency.CreateProcessing(key, hash, time.Time{})
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		writeError(c, err)
		return true
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Status == domain.IdempotencyStatusProcessing {
			c.JSON(http.StatusConflict, gin.H{"error": "request is still being processed"})
			return true
		}
		// Реплей сохранённого ответа.
		c.Data(record.HTTPStatus, "application/json", record.ResponseBody)
		return true
	default:
		h.logger.WithError(err).WithField("key", key).Warn("idempotency registration failed")
		// Деградация без защиты лучше отказа в оформлении.
		return false
	}
}

func (h *OrderHandler) finishIdempotent(key string, failure error) {
	if key == "" || h.idempotency == nil {
		return
	}
	body, _ := json.Marshal(gin.H{"error": failure.Error()})
	if err := h.idempotency.MarkFailed(key, body, statusFor(failure)); err != nil {
		h.logger.WithError(err).WithField("key", key).Warn("failed to mark idempotency key failed")
	}
}

// ListOwn возвращает заказы вызывающего, новые первыми.
func (h *OrderHandler) ListOwn(c *gin.Context) {
	result, err := h.orders.ListOwn(actorFrom(c), limitParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(result)})
}

// Get возвращает заказ владельцу или администратору.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(actorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Track возвращает заказ по номеру: номер служит capability-токеном.
func (h *OrderHandler) Track(c *gin.Context) {
	order, err := h.orders.TrackByNumber(c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type cancelOrderReq struct {
	Reason string `json:"reason"`
}

// Cancel отменяет заказ с возвратом стока.
func (h *OrderHandler) Cancel(c *gin.Context) {
	// Тело с причиной опционально.
	var req cancelOrderReq
	_ = c.ShouldBindJSON(&req)

	order, err := h.orders.Cancel(actorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus меняет статус заказа (только администратор).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(actorFrom(c), c.Param("id"), status, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListAll возвращает заказы всех пользователей (только администратор).
func (h *OrderHandler) ListAll(c *gin.Context) {
	result, err := h.orders.ListAll(actorFrom(c), limitParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(result)})
}

func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
