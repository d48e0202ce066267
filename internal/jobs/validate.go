package jobs

import "strings"

// ValidatePayload checks that payload has the Go type expected for t and
// carries the ids the handler needs.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case JobRFPSummarize:
		var p RFPSummarizePayload
		switch v := payload.(type) {
		case RFPSummarizePayload:
			p = v
		case *RFPSummarizePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.RFPID) {
			return ErrInvalidJobPayload
		}

	case JobOfferNotify:
		var p OfferNotifyPayload
		switch v := payload.(type) {
		case OfferNotifyPayload:
			p = v
		case *OfferNotifyPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.OfferID) || blank(p.RecipientID) {
			return ErrInvalidJobPayload
		}
		if p.Kind != NotifyOfferCreated && p.Kind != NotifyOfferAccepted {
			return ErrInvalidJobPayload
		}

	case JobPoolsExpire, JobRFPsExpire:
		switch payload.(type) {
		case SweepPayload, *SweepPayload:
		default:
			return ErrPayloadTypeMismatch
		}
	}

	return nil
}
