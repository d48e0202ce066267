package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/delivery"
	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/domain/offer"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/jobs"
	"github.com/geocoder89/rfphub/internal/notifications"
)

type RFPStore interface {
	GetByID(ctx context.Context, id string) (rfp.RFP, error)
	SetSummary(ctx context.Context, id, summary string) error
	CloseOverdue(ctx context.Context, now time.Time) (int64, error)
}

type OfferStore interface {
	GetWithRFP(ctx context.Context, id string) (offer.Offer, rfp.RFP, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type DeliveryStore interface {
	TryStart(ctx context.Context, jobID, kind, offerID, recipientID string) error
	MarkSent(ctx context.Context, kind, offerID, recipientID string, providerMessageID *string) error
	MarkFailed(ctx context.Context, kind, offerID, recipientID, errMsg string) error
}

type PoolSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (completed, expired int, err error)
}

// Deps are the stores and services the job handlers run against.
type Deps struct {
	RFPs       RFPStore
	Offers     OfferStore
	Users      UserStore
	Deliveries DeliveryStore
	Pools      PoolSweeper
	Notifier   notifications.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handlers wires one HandlerFunc per job type.
func Handlers(d Deps) map[jobs.JobType]HandlerFunc {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	return map[jobs.JobType]HandlerFunc{
		jobs.JobRFPSummarize: d.summarizeRFP,
		jobs.JobOfferNotify:  d.notifyOffer,
		jobs.JobPoolsExpire:  d.expirePools,
		jobs.JobRFPsExpire:   d.expireRFPs,
	}
}

func (d Deps) summarizeRFP(ctx context.Context, j job.Job) error {
	raw, err := jobs.DecodePayload(jobs.JobRFPSummarize, j.Payload)
	if err != nil {
		return err
	}
	p := raw.(jobs.RFPSummarizePayload)

	x, err := d.RFPs.GetByID(ctx, p.RFPID)
	if err != nil {
		if errors.Is(err, rfp.ErrNotFound) {
			return fmt.Errorf("%w: rfp %s is gone", ErrPermanent, p.RFPID)
		}
		return err
	}

	if err := d.RFPs.SetSummary(ctx, x.ID, rfp.Summarize(x)); err != nil {
		return err
	}

	d.Logger.InfoContext(ctx, "rfp.summarized", "rfp_id", x.ID, "job_id", j.ID, "request_id", p.RequestID)
	return nil
}

func (d Deps) notifyOffer(ctx context.Context, j job.Job) error {
	raw, err := jobs.DecodePayload(jobs.JobOfferNotify, j.Payload)
	if err != nil {
		return err
	}
	p := raw.(jobs.OfferNotifyPayload)

	o, x, err := d.Offers.GetWithRFP(ctx, p.OfferID)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) || errors.Is(err, rfp.ErrNotFound) {
			return fmt.Errorf("%w: offer %s is gone", ErrPermanent, p.OfferID)
		}
		return err
	}

	recipient, err := d.Users.GetByID(ctx, p.RecipientID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return fmt.Errorf("%w: recipient %s is gone", ErrPermanent, p.RecipientID)
		}
		return err
	}

	if err := d.Deliveries.TryStart(ctx, j.ID, p.Kind, o.ID, recipient.ID); err != nil {
		if errors.Is(err, delivery.ErrAlreadySent) {
			d.Logger.InfoContext(ctx, "notification.skipped_already_sent", "offer_id", o.ID, "kind", p.Kind)
			return nil
		}
		return err
	}

	msgID, sendErr := d.Notifier.SendOfferNotification(ctx, notifications.OfferNotificationInput{
		Kind:           p.Kind,
		OfferID:        o.ID,
		RFPID:          x.ID,
		RFPTitle:       x.Title,
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		RecipientName:  recipient.FullName(),
		Price:          o.Price,
	})
	if sendErr != nil {
		if err := d.Deliveries.MarkFailed(ctx, p.Kind, o.ID, recipient.ID, sendErr.Error()); err != nil {
			d.Logger.ErrorContext(ctx, "notification.mark_failed_error", "offer_id", o.ID, "err", err)
		}
		return sendErr
	}

	var provider *string
	if msgID != "" {
		provider = &msgID
	}
	return d.Deliveries.MarkSent(ctx, p.Kind, o.ID, recipient.ID, provider)
}

func (d Deps) expirePools(ctx context.Context, j job.Job) error {
	if _, err := jobs.DecodePayload(jobs.JobPoolsExpire, j.Payload); err != nil {
		return err
	}

	completed, expired, err := d.Pools.SweepOverdue(ctx, d.Now())
	if err != nil {
		return err
	}

	d.Logger.InfoContext(ctx, "pools.swept", "completed", completed, "expired", expired, "job_id", j.ID)
	return nil
}

func (d Deps) expireRFPs(ctx context.Context, j job.Job) error {
	if _, err := jobs.DecodePayload(jobs.JobRFPsExpire, j.Payload); err != nil {
		return err
	}

	closed, err := d.RFPs.CloseOverdue(ctx, d.Now())
	if err != nil {
		return err
	}

	d.Logger.InfoContext(ctx, "rfps.swept", "closed", closed, "job_id", j.ID)
	return nil
}
