package product

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultCurrency = "USD"

var (
	ErrNotFound      = errors.New("product not found")
	ErrInvalidFilter = errors.New("invalid product filter")
)

type Product struct {
	ID             string         `json:"id"`
	SellerID       string         `json:"seller_id"`
	OrganizationID *string        `json:"organization_id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Price          float64        `json:"price"`
	Currency       string         `json:"currency"`
	StockQuantity  int            `json:"stock_quantity"`
	Images         []string       `json:"images"`
	Specifications map[string]any `json:"specifications"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type CreateRequest struct {
	Title          string         `json:"title" binding:"required,min=3,max=200"`
	Description    string         `json:"description" binding:"required,max=10000"`
	Category       string         `json:"category" binding:"required,max=100"`
	Price          float64        `json:"price" binding:"required,gt=0"`
	Currency       string         `json:"currency" binding:"omitempty,len=3"`
	StockQuantity  int            `json:"stock_quantity" binding:"gte=0"`
	Images         []string       `json:"images" binding:"omitempty,max=20,dive,url"`
	Specifications map[string]any `json:"specifications"`
}

// ListFilter mirrors the marketplace search filters.
type ListFilter struct {
	Category  string
	PriceMin  *float64
	PriceMax  *float64
	SortBy    string // price | created_at
	SortOrder string // asc | desc
	Limit     int
	Offset    int
}

// Normalize fills sort defaults and rejects unknown sort keys or inverted price bounds.
func (f *ListFilter) Normalize() error {
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))

	switch f.SortBy {
	case "":
		f.SortBy = "created_at"
	case "price", "created_at":
	default:
		return ErrInvalidFilter
	}

	switch strings.ToLower(f.SortOrder) {
	case "":
		f.SortOrder = "desc"
	case "asc", "desc":
		f.SortOrder = strings.ToLower(f.SortOrder)
	default:
		return ErrInvalidFilter
	}

	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return ErrInvalidFilter
	}
	return nil
}

func New(req CreateRequest, sellerID string, orgID *string, now time.Time) Product {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}
	specs := req.Specifications
	if specs == nil {
		specs = map[string]any{}
	}

	return Product{
		ID:             uuid.NewString(),
		SellerID:       sellerID,
		OrganizationID: orgID,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Category:       strings.ToLower(strings.TrimSpace(req.Category)),
		Price:          req.Price,
		Currency:       currency,
		StockQuantity:  req.StockQuantity,
		Images:         images,
		Specifications: specs,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
