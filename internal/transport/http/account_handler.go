package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// AccountHandler обслуживает адресную книгу и профиль пользователя.
type AccountHandler struct {
	addresses domain.AddressRepository
	users     domain.UserRepository
}

// NewAccountHandler создаёт обработчик учётной записи.
func NewAccountHandler(addresses domain.AddressRepository, users domain.UserRepository) *AccountHandler {
	return &AccountHandler{addresses: addresses, users: users}
}

// ListAddresses отдаёт адресную книгу вызывающего.
func (h *AccountHandler) ListAddresses(c *gin.Context) {
	result, err := h.addresses.ListByUser(actorFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]addressResponse, 0, len(result))
	for _, a := range result {
		out = append(out, toAddressResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"addresses": out})
}

type createAddressReq struct {
	Type       string `json:"type" binding:"required"`
	Title      string `json:"title"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postal_code"`
	Text       string `json:"text" binding:"required"`
}

// CreateAddress добавляет адрес в книгу вызывающего.
func (h *AccountHandler) CreateAddress(c *gin.Context) {
	var req createAddressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	addrType := domain.AddressType(req.Type)
	if !addrType.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "address type must be delivery or billing"})
		return
	}

	address := domain.Address{
		ID:         uuid.NewString(),
		UserID:     actorFrom(c).UserID,
		Type:       addrType,
		Title:      req.Title,
		FullName:   req.FullName,
		Phone:      req.Phone,
		City:       req.City,
		District:   req.District,
		PostalCode: req.PostalCode,
		Text:       req.Text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.addresses.Create(address); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressResponse(address))
}

// DeleteAddress удаляет адрес; чужой id неотличим от отсутствующего.
func (h *AccountHandler) DeleteAddress(c *gin.Context) {
	if err := h.addresses.Delete(c.Param("id"), actorFrom(c).UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile отдаёт профиль вызывающего, включая дилерские реквизиты.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	user, err := h.users.Get(actorFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(user))
}

type updateProfileReq struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	TaxID       string `json:"tax_id"`
	TaxOffice   string `json:"tax_office"`
}

// UpdateProfile правит профиль вызывающего. Роль и email отсюда не меняются.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, err := h.users.Get(actorFrom(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	user.Name = req.Name
	user.Phone = req.Phone
	user.Company = domain.CompanyProfile{
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		TaxOffice:   req.TaxOffice,
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.users.Update(user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(user))
}
