package organization

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const TierFree = "free"

var ErrNotFound = errors.New("organization not found")

type Organization struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	Website          *string   `json:"website,omitempty"`
	LogoURL          *string   `json:"logo_url,omitempty"`
	Industry         *string   `json:"industry,omitempty"`
	Size             *string   `json:"size,omitempty"`
	IsVerified       bool      `json:"is_verified"`
	SubscriptionTier string    `json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Website     *string `json:"website" binding:"omitempty,url"`
	LogoURL     *string `json:"logo_url" binding:"omitempty,url"`
	Industry    *string `json:"industry" binding:"omitempty,max=100"`
	Size        *string `json:"size" binding:"omitempty,max=50"`
}

func New(req CreateRequest) Organization {
	now := time.Now().UTC()

	return Organization{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		Website:          req.Website,
		LogoURL:          req.LogoURL,
		Industry:         req.Industry,
		Size:             req.Size,
		SubscriptionTier: TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
