package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/cache"
	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/domain/offer"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/jobs"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

type OffersStore interface {
	Create(ctx context.Context, o offer.Offer, notify postgres.NotifyJobFunc) (rfp.RFP, error)
	GetWithRFP(ctx context.Context, id string) (offer.Offer, rfp.RFP, error)
	ListByRFP(ctx context.Context, rfpID string, limit, offset int) ([]offer.Offer, int, error)
	ListBySeller(ctx context.Context, sellerID string, limit, offset int) ([]offer.Offer, int, error)
	Update(ctx context.Context, id, sellerID string, req offer.UpdateRequest, now time.Time) (offer.Offer, error)
	Withdraw(ctx context.Context, id, sellerID string, now time.Time) (offer.Offer, error)
	Accept(ctx context.Context, offerID, buyerID string, now time.Time, notify postgres.NotifyJobFunc) (postgres.AcceptResult, error)
}

type RFPReader interface {
	GetByID(ctx context.Context, id string) (rfp.RFP, error)
}

type OffersHandler struct {
	offers OffersStore
	rfps   RFPReader
	users  UserLookup
	cache  *cache.Cache
	events *events.Emitter
	now    func() time.Time
}

// NewOffersHandler shares c with the rfps handler; Accept clears its list pages.
func NewOffersHandler(offers OffersStore, rfps RFPReader, users UserLookup, c *cache.Cache, emitter *events.Emitter) *OffersHandler {
	return &OffersHandler{
		offers: offers,
		rfps:   rfps,
		users:  users,
		cache:  c,
		events: emitter,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// notifyJob builds the offer.notify insert that rides in the offer's
// transaction. One delivery per kind and offer.
func notifyJob(kind, requestID string, recipient func(rfp.RFP, offer.Offer) string) postgres.NotifyJobFunc {
	return func(x rfp.RFP, o offer.Offer) (job.CreateRequest, error) {
		return jobs.NewCreateRequest(jobs.JobOfferNotify, jobs.OfferNotifyPayload{
			OfferID:     o.ID,
			RFPID:       x.ID,
			RecipientID: recipient(x, o),
			Kind:        kind,
			RequestID:   requestID,
		}, string(jobs.JobOfferNotify)+":"+kind+":"+o.ID)
	}
}

func respondOfferError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, offer.ErrNotFound):
		RespondNotFound(ctx, "Offer not found")
	case errors.Is(err, rfp.ErrNotFound):
		RespondNotFound(ctx, "RFP not found")
	case errors.Is(err, offer.ErrForbidden), errors.Is(err, rfp.ErrForbidden):
		RespondForbidden(ctx, err.Error())
	case errors.Is(err, offer.ErrAlreadySubmitted):
		RespondBadRequestCode(ctx, "already_submitted", err.Error())
	case errors.Is(err, offer.ErrOwnRFP):
		RespondBadRequestCode(ctx, "own_rfp", err.Error())
	case errors.Is(err, rfp.ErrNotOpen):
		RespondBadRequestCode(ctx, "rfp_not_open", "RFP is not accepting offers")
	case errors.Is(err, offer.ErrNotPending):
		RespondBadRequestCode(ctx, "offer_not_pending", err.Error())
	default:
		RespondInternal(ctx, fallback)
	}
}

// POST /rfps/:id/offers
func (h *OffersHandler) Create(ctx *gin.Context) {
	sellerID, _, ok := caller(ctx)
	if !ok {
		return
	}
	rfpID, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req offer.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	seller, err := h.users.GetByID(cctx, sellerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Caller no longer exists")
			return
		}
		RespondInternal(ctx, "Could not submit offer")
		return
	}

	o := offer.New(req, rfpID, sellerID, seller.OrganizationID, h.now())

	notify := notifyJob(jobs.NotifyOfferCreated, requestIDFrom(ctx), func(x rfp.RFP, _ offer.Offer) string {
		return x.BuyerID
	})

	x, err := h.offers.Create(cctx, o, notify)
	if err != nil {
		respondOfferError(ctx, err, "Could not submit offer")
		return
	}

	h.events.Emit(ctx.Request.Context(), events.OfferCreated, gin.H{
		"offer_id":  o.ID,
		"rfp_id":    x.ID,
		"seller_id": o.SellerID,
		"buyer_id":  x.BuyerID,
		"price":     o.Price,
	})

	ctx.JSON(http.StatusCreated, o)
}

// GET /rfps/:id/offers is limited to the rfp's buyer.
func (h *OffersHandler) ListByRFP(ctx *gin.Context) {
	userID, role, ok := caller(ctx)
	if !ok {
		return
	}
	rfpID, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	x, err := h.rfps.GetByID(cctx, rfpID)
	if err != nil {
		respondOfferError(ctx, err, "Could not list offers")
		return
	}
	if x.BuyerID != userID && role != string(user.RoleAdmin) {
		RespondForbidden(ctx, "Only the buyer may view offers on this rfp")
		return
	}

	items, total, err := h.offers.ListByRFP(cctx, rfpID, page.PerPage, page.Offset())
	if err != nil {
		RespondInternal(ctx, "Could not list offers")
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPaginated(items, total, page))
}

// GET /rfps/offers/my
func (h *OffersHandler) My(ctx *gin.Context) {
	sellerID, _, ok := caller(ctx)
	if !ok {
		return
	}
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.offers.ListBySeller(cctx, sellerID, page.PerPage, page.Offset())
	if err != nil {
		RespondInternal(ctx, "Could not list offers")
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPaginated(items, total, page))
}

// loadParty fetches an offer for its seller, the rfp's buyer or an admin.
func (h *OffersHandler) loadParty(ctx *gin.Context) (offer.Offer, rfp.RFP, bool) {
	userID, role, ok := caller(ctx)
	if !ok {
		return offer.Offer{}, rfp.RFP{}, false
	}
	id, ok := pathUUID(ctx, "offer_id")
	if !ok {
		return offer.Offer{}, rfp.RFP{}, false
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	o, x, err := h.offers.GetWithRFP(cctx, id)
	if err != nil {
		respondOfferError(ctx, err, "Could not fetch offer")
		return offer.Offer{}, rfp.RFP{}, false
	}

	if o.SellerID != userID && x.BuyerID != userID && role != string(user.RoleAdmin) {
		RespondForbidden(ctx, "Not a party to this offer")
		return offer.Offer{}, rfp.RFP{}, false
	}

	return o, x, true
}

// GET /rfps/offers/:offer_id
func (h *OffersHandler) GetByID(ctx *gin.Context) {
	o, _, ok := h.loadParty(ctx)
	if !ok {
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, o)
}

// PUT /rfps/offers/:offer_id
func (h *OffersHandler) Update(ctx *gin.Context) {
	sellerID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "offer_id")
	if !ok {
		return
	}

	var req offer.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.offers.Update(cctx, id, sellerID, req, h.now())
	if err != nil {
		respondOfferError(ctx, err, "Could not update offer")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

// DELETE /rfps/offers/:offer_id withdraws the offer; the row is kept.
func (h *OffersHandler) Withdraw(ctx *gin.Context) {
	sellerID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "offer_id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.offers.Withdraw(cctx, id, sellerID, h.now())
	if err != nil {
		respondOfferError(ctx, err, "Could not withdraw offer")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

// POST /rfps/offers/:offer_id/accept awards the rfp and opens the order.
func (h *OffersHandler) Accept(ctx *gin.Context) {
	buyerID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "offer_id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 5*time.Second)
	defer cancel()

	notify := notifyJob(jobs.NotifyOfferAccepted, requestIDFrom(ctx), func(_ rfp.RFP, o offer.Offer) string {
		return o.SellerID
	})

	res, err := h.offers.Accept(cctx, id, buyerID, h.now(), notify)
	if err != nil {
		respondOfferError(ctx, err, "Could not accept offer")
		return
	}

	if h.cache != nil {
		h.cache.DeletePrefix(utils.RFPListCachePrefix)
	}

	h.events.Emit(ctx.Request.Context(), events.OfferAccepted, gin.H{
		"offer_id":  res.Offer.ID,
		"rfp_id":    res.RFP.ID,
		"order_id":  res.Order.ID,
		"seller_id": res.Offer.SellerID,
		"buyer_id":  res.RFP.BuyerID,
		"price":     res.Offer.Price,
	})

	ctx.JSON(http.StatusOK, res)
}

// GET /rfps/offers/:offer_id/suggestions
func (h *OffersHandler) Suggestions(ctx *gin.Context) {
	o, x, ok := h.loadParty(ctx)
	if !ok {
		return
	}

	mid, hasBudget := x.BudgetMidpoint()
	ctx.JSON(http.StatusOK, offer.SuggestCounteroffer(o.Price, mid, hasBudget))
}
