package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrNotAllowed        = errors.New("caller may not set this order status")
)

type Address struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Street         string    `json:"street"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postal_code"`
	Country        string    `json:"country"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

type Order struct {
	ID              string        `json:"id"`
	BuyerID         string        `json:"buyer_id"`
	SellerID        string        `json:"seller_id"`
	RFPID           *string       `json:"rfp_id,omitempty"`
	OfferID         *string       `json:"offer_id,omitempty"`
	ProductID       *string       `json:"product_id,omitempty"`
	PoolID          *string       `json:"pool_id,omitempty"`
	Quantity        int           `json:"quantity"`
	TotalAmount     float64       `json:"total_amount"`
	Currency        string        `json:"currency"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	ShippingAddress *Address      `json:"shipping_address,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=confirmed shipped delivered cancelled"`
}

// Actor describes the caller's relationship to an order.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (o Order) Involves(a Actor) bool {
	return a.IsAdmin || o.BuyerID == a.UserID || o.SellerID == a.UserID
}

// NewForOffer builds the pending order created when a buyer accepts an offer.
func NewForOffer(buyerID, sellerID, rfpID, offerID string, amount float64, now time.Time) Order {
	return Order{
		ID:            uuid.NewString(),
		BuyerID:       buyerID,
		SellerID:      sellerID,
		RFPID:         &rfpID,
		OfferID:       &offerID,
		Quantity:      1,
		TotalAmount:   amount,
		Currency:      "USD",
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition applies next on behalf of a. The seller drives fulfilment; either
// party may cancel while the order has not shipped. Admins may do both.
func (o *Order) Transition(next Status, a Actor, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	isSeller := a.UserID == o.SellerID
	isBuyer := a.UserID == o.BuyerID

	switch next {
	case StatusConfirmed, StatusShipped, StatusDelivered:
		if !isSeller && !a.IsAdmin {
			return ErrNotAllowed
		}
	case StatusCancelled:
		if !isSeller && !isBuyer && !a.IsAdmin {
			return ErrNotAllowed
		}
	}

	o.Status = next
	o.UpdatedAt = now
	if next == StatusDelivered {
		o.DeliveredAt = &now
	}
	return nil
}
