package delivery

import "errors"

// Kinds of notification a worker may deliver. One row per kind, offer and recipient.
const (
	KindOfferCreated  = "offer.created"
	KindOfferAccepted = "offer.accepted"
)

var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification delivery in progress")
)
