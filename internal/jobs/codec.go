package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/rfphub/internal/domain/job"
)

// EncodePayload checks payload against t and marshals it.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}
	return b, nil
}

// DecodePayload unmarshals raw into the typed payload struct for t.
func DecodePayload(t JobType, raw []byte) (any, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var (
		out any
		err error
	)

	switch t {
	case JobRFPSummarize:
		var p RFPSummarizePayload
		err = json.Unmarshal(raw, &p)
		out = p
	case JobOfferNotify:
		var p OfferNotifyPayload
		err = json.Unmarshal(raw, &p)
		out = p
	case JobPoolsExpire, JobRFPsExpire:
		var p SweepPayload
		err = json.Unmarshal(raw, &p)
		out = p
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}
	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewCreateRequest builds a queue insert for a typed payload.
func NewCreateRequest(t JobType, payload any, idempotencyKey string) (job.CreateRequest, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}

	req := job.CreateRequest{Type: string(t), Payload: b}
	if idempotencyKey != "" {
		req.IdempotencyKey = &idempotencyKey
	}
	return req, nil
}
