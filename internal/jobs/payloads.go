package jobs

import "time"

// Payloads stay ID-based; handlers reload current state from the database.

type RFPSummarizePayload struct {
	RFPID       string `json:"rfp_id"`
	RequestedBy string `json:"requested_by,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

const (
	NotifyOfferCreated  = "offer.created"
	NotifyOfferAccepted = "offer.accepted"
)

type OfferNotifyPayload struct {
	OfferID     string `json:"offer_id"`
	RFPID       string `json:"rfp_id"`
	RecipientID string `json:"recipient_id"`
	Kind        string `json:"kind"`
	RequestID   string `json:"request_id,omitempty"`
}

// SweepPayload carries the scheduler slot that produced the job.
type SweepPayload struct {
	Slot time.Time `json:"slot"`
}
