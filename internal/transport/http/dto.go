package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int32           `json:"qty"`
	Price       decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	OrderNumber       string              `json:"order_number"`
	UserID            string              `json:"user_id"`
	Status            string              `json:"status"`
	ShippingAddressID string              `json:"shipping_address_id"`
	BillingAddressID  string              `json:"billing_address_id"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	Notes             string              `json:"notes,omitempty"`
	Lines             []orderLineResponse `json:"lines"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Qty:         line.Qty,
			Price:       line.Price,
		})
	}
	return orderResponse{
		ID:                o.ID,
		OrderNumber:       o.Number,
		UserID:            o.UserID,
		Status:            string(o.Status),
		ShippingAddressID: o.ShippingAddressID,
		BillingAddressID:  o.BillingAddressID,
		TotalPrice:        o.TotalPrice,
		Notes:             o.Notes,
		Lines:             lines,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type productResponse struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

type categoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type cartLineResponse struct {
	Product productResponse `json:"product"`
	Qty     int32           `json:"qty"`
	Clamped bool            `json:"clamped,omitempty"`
}

type addressResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	City       string    `json:"city,omitempty"`
	District   string    `json:"district,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Type:       string(a.Type),
		Title:      a.Title,
		FullName:   a.FullName,
		Phone:      a.Phone,
		City:       a.City,
		District:   a.District,
		PostalCode: a.PostalCode,
		Text:       a.Text,
		CreatedAt:  a.CreatedAt,
	}
}

type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	TaxOffice   string `json:"tax_office,omitempty"`
	Dealer      bool   `json:"dealer"`
}

func toProfileResponse(u domain.User) profileResponse {
	return profileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Role:        string(u.Role),
		CompanyName: u.Company.CompanyName,
		TaxID:       u.Company.TaxID,
		TaxOffice:   u.Company.TaxOffice,
		Dealer:      u.IsDealer(),
	}
}
