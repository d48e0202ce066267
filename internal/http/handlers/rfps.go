package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/cache"
	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/jobs"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

type RFPsStore interface {
	Create(ctx context.Context, x rfp.RFP, summarize job.CreateRequest) error
	GetByID(ctx context.Context, id string) (rfp.RFP, error)
	List(ctx context.Context, f rfp.ListFilter) ([]rfp.RFP, int, error)
	Mutate(ctx context.Context, id string, fn func(*rfp.RFP) error) (rfp.RFP, error)
}

// UserLookup resolves the caller's organization when an rfp is created.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type RFPsHandler struct {
	rfps   RFPsStore
	users  UserLookup
	cache  *cache.Cache
	events *events.Emitter
	now    func() time.Time
}

func NewRFPsHandler(rfps RFPsStore, users UserLookup, c *cache.Cache, emitter *events.Emitter) *RFPsHandler {
	return &RFPsHandler{
		rfps:   rfps,
		users:  users,
		cache:  c,
		events: emitter,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *RFPsHandler) invalidateList() {
	if h.cache == nil {
		return
	}
	h.cache.DeletePrefix(utils.RFPListCachePrefix)
}

// POST /rfps stores a draft and queues its summary in the same transaction.
func (h *RFPsHandler) Create(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	var req rfp.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	buyer, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Caller no longer exists")
			return
		}
		RespondInternal(ctx, "Could not create rfp")
		return
	}

	x, err := rfp.New(req, userID, buyer.OrganizationID, h.now())
	if err != nil {
		switch {
		case errors.Is(err, rfp.ErrInvalidBudget):
			RespondBadRequestCode(ctx, "invalid_budget", err.Error())
		case errors.Is(err, rfp.ErrDeadlinePassed):
			RespondBadRequestCode(ctx, "invalid_deadline", err.Error())
		default:
			RespondBadRequest(ctx, err.Error(), nil)
		}
		return
	}

	summarize, err := jobs.NewCreateRequest(jobs.JobRFPSummarize, jobs.RFPSummarizePayload{
		RFPID:       x.ID,
		RequestedBy: userID,
		RequestID:   requestIDFrom(ctx),
	}, "")
	if err != nil {
		RespondInternal(ctx, "Could not create rfp")
		return
	}

	if err := h.rfps.Create(cctx, x, summarize); err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "rfp.create_failed", "rfp_id", x.ID, "err", err)
		RespondInternal(ctx, "Could not create rfp")
		return
	}

	h.invalidateList()
	ctx.JSON(http.StatusCreated, x)
}

// GET /rfps lists what the caller may see. Anonymous pages are served from
// the in-process cache.
func (h *RFPsHandler) List(ctx *gin.Context) {
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	status := rfp.Status(ctx.Query("status"))
	if status != "" && !status.IsValid() {
		RespondBadRequest(ctx, "Invalid status filter", nil)
		return
	}
	category := ctx.Query("category")

	viewerID, _ := viewer(ctx)

	key := utils.BuildRFPListCacheKey(page.Page, page.PerPage, category, string(status))
	if viewerID == "" && h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			RespondJSONWithETag(ctx, http.StatusOK, cached)
			return
		}
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.rfps.List(cctx, rfp.ListFilter{
		Category: category,
		Status:   status,
		ViewerID: viewerID,
		Limit:    page.PerPage,
		Offset:   page.Offset(),
	})
	if err != nil {
		RespondInternal(ctx, "Could not list rfps")
		return
	}

	resp := utils.NewPaginated(items, total, page)
	if viewerID == "" && h.cache != nil {
		h.cache.Set(key, resp)
	}

	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

// GET /rfps/:id
func (h *RFPsHandler) GetByID(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	x, err := h.rfps.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, rfp.ErrNotFound) {
			RespondNotFound(ctx, "RFP not found")
			return
		}
		RespondInternal(ctx, "Could not fetch rfp")
		return
	}

	viewerID, admin := viewer(ctx)
	if !x.VisibleTo(viewerID, admin) {
		RespondForbidden(ctx, "This rfp is private")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, x)
}

// PUT /rfps/:id applies a partial update for the buyer.
func (h *RFPsHandler) Update(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req rfp.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	h.mutate(ctx, id, func(x *rfp.RFP) error {
		if x.BuyerID != userID {
			return rfp.ErrForbidden
		}
		if x.Status.IsTerminal() {
			return rfp.ErrNotOpen
		}
		return x.Apply(req, h.now())
	}, nil)
}

// POST /rfps/:id/publish moves a draft to published.
func (h *RFPsHandler) Publish(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	h.mutate(ctx, id, func(x *rfp.RFP) error {
		if x.BuyerID != userID {
			return rfp.ErrForbidden
		}
		if x.Status != rfp.StatusDraft {
			return rfp.ErrNotDraft
		}
		return x.Transition(rfp.StatusPublished, h.now())
	}, func(x rfp.RFP) {
		h.events.Emit(ctx.Request.Context(), events.RFPPublished, x)
	})
}

// POST /rfps/:id/close
func (h *RFPsHandler) Close(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	h.mutate(ctx, id, func(x *rfp.RFP) error {
		if x.BuyerID != userID {
			return rfp.ErrForbidden
		}
		return x.Transition(rfp.StatusClosed, h.now())
	}, nil)
}

func (h *RFPsHandler) mutate(ctx *gin.Context, id string, fn func(*rfp.RFP) error, after func(rfp.RFP)) {
	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	x, err := h.rfps.Mutate(cctx, id, fn)
	if err != nil {
		switch {
		case errors.Is(err, rfp.ErrNotFound):
			RespondNotFound(ctx, "RFP not found")
		case errors.Is(err, rfp.ErrForbidden):
			RespondForbidden(ctx, err.Error())
		case errors.Is(err, rfp.ErrNotDraft):
			RespondBadRequestCode(ctx, "not_draft", err.Error())
		case errors.Is(err, rfp.ErrInvalidTransition):
			RespondBadRequestCode(ctx, "invalid_transition", "RFP can no longer change status")
		case errors.Is(err, rfp.ErrNotOpen):
			RespondBadRequestCode(ctx, "rfp_not_open", err.Error())
		case errors.Is(err, rfp.ErrInvalidBudget):
			RespondBadRequestCode(ctx, "invalid_budget", err.Error())
		case errors.Is(err, rfp.ErrDeadlinePassed):
			RespondBadRequestCode(ctx, "invalid_deadline", err.Error())
		default:
			RespondInternal(ctx, "Could not update rfp")
		}
		return
	}

	h.invalidateList()
	if after != nil {
		after(x)
	}

	ctx.JSON(http.StatusOK, x)
}
