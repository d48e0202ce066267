package notifications

import "context"

// OfferNotificationInput describes one message to a buyer or seller about an
// offer on an rfp.
type OfferNotificationInput struct {
	Kind           string
	OfferID        string
	RFPID          string
	RFPTitle       string
	RecipientID    string
	RecipientEmail string
	RecipientName  string
	Price          float64
}

// Notifier delivers offer notifications and returns the provider message id.
type Notifier interface {
	SendOfferNotification(ctx context.Context, input OfferNotificationInput) (string, error)
}
