package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode_OfferNotify(t *testing.T) {
	payload := OfferNotifyPayload{
		OfferID:     "offer-1",
		RFPID:       "rfp-1",
		RecipientID: "user-1",
		Kind:        NotifyOfferCreated,
	}

	b, err := EncodePayload(JobOfferNotify, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	decoded, err := DecodePayload(JobOfferNotify, b)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(OfferNotifyPayload)
	if !ok {
		t.Fatalf("expected OfferNotifyPayload, got %T", decoded)
	}
	if p != payload {
		t.Fatalf("round trip mismatch: %+v vs %+v", p, payload)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobRFPSummarize, OfferNotifyPayload{OfferID: "o"})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestValidatePayload_RequiredIDs(t *testing.T) {
	if err := ValidatePayload(JobRFPSummarize, RFPSummarizePayload{RFPID: "  "}); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}
	if err := ValidatePayload(JobOfferNotify, OfferNotifyPayload{OfferID: "o", RecipientID: "u", Kind: "other"}); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("unknown notify kind must be rejected, got %v", err)
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	if _, err := DecodePayload("nope", []byte(`{}`)); !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
	if _, err := DecodePayload(JobRFPSummarize, nil); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload for empty payload, got %v", err)
	}
	if _, err := DecodePayload(JobRFPSummarize, []byte(`{"rfp_id":`)); !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload for bad json, got %v", err)
	}
}

func TestNewCreateRequest(t *testing.T) {
	req, err := NewCreateRequest(JobPoolsExpire, SweepPayload{Slot: time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC)}, "pools.expire:202601010005")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if req.Type != "pools.expire" || req.IdempotencyKey == nil || *req.IdempotencyKey != "pools.expire:202601010005" {
		t.Fatalf("unexpected request %+v", req)
	}

	req, _ = NewCreateRequest(JobRFPSummarize, RFPSummarizePayload{RFPID: "r"}, "")
	if req.IdempotencyKey != nil {
		t.Fatalf("empty key must stay nil")
	}
}

func TestJobType(t *testing.T) {
	if !JobRFPsExpire.IsSweep() || JobOfferNotify.IsSweep() {
		t.Fatalf("unexpected sweep classification")
	}
	if JobType("x").IsValid() {
		t.Fatalf("unknown type must be invalid")
	}
}
