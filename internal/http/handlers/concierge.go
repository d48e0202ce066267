package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/concierge"
	"github.com/gin-gonic/gin"
)

type ConciergeService interface {
	Chat(ctx context.Context, userID, role, message string, chatCtx map[string]any) (concierge.Reply, error)
	History(ctx context.Context, userID string) ([]concierge.Message, error)
	ClearHistory(ctx context.Context, userID string) error
	Template(category string) concierge.Template
	AnalyzeOffer(req concierge.AnalyzeOfferRequest) concierge.OfferAnalysis
	Suggestions(role string) []string
}

type ConciergeHandler struct {
	svc ConciergeService
}

func NewConciergeHandler(svc ConciergeService) *ConciergeHandler {
	return &ConciergeHandler{svc: svc}
}

type ChatRequest struct {
	Message string         `json:"message" binding:"required,max=4000"`
	Context map[string]any `json:"context"`
}

// POST /ai-concierge/chat
func (h *ConciergeHandler) Chat(ctx *gin.Context) {
	userID, role, ok := caller(ctx)
	if !ok {
		return
	}

	var req ChatRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	reply, err := h.svc.Chat(cctx, userID, role, req.Message, req.Context)
	if err != nil {
		if errors.Is(err, concierge.ErrEmptyMessage) {
			RespondBadRequestCode(ctx, "empty_message", err.Error())
			return
		}
		RespondInternal(ctx, "Concierge is unavailable")
		return
	}

	ctx.JSON(http.StatusOK, reply)
}

// GET /ai-concierge/templates/:category
func (h *ConciergeHandler) Template(ctx *gin.Context) {
	RespondJSONWithETag(ctx, http.StatusOK, h.svc.Template(ctx.Param("category")))
}

// POST /ai-concierge/analyze-offer
func (h *ConciergeHandler) AnalyzeOffer(ctx *gin.Context) {
	var req concierge.AnalyzeOfferRequest
	if !BindJSON(ctx, &req) {
		return
	}

	ctx.JSON(http.StatusOK, h.svc.AnalyzeOffer(req))
}

// DELETE /ai-concierge/clear-history
func (h *ConciergeHandler) ClearHistory(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	if err := h.svc.ClearHistory(cctx, userID); err != nil {
		RespondInternal(ctx, "Could not clear history")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Chat history cleared"})
}

// GET /ai-concierge/suggestions
func (h *ConciergeHandler) Suggestions(ctx *gin.Context) {
	_, role, ok := caller(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"suggestions": h.svc.Suggestions(role)})
}

// GET /ai-concierge/history
func (h *ConciergeHandler) History(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	msgs, err := h.svc.History(cctx, userID)
	if err != nil {
		RespondInternal(ctx, "Could not load history")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": msgs, "count": len(msgs)})
}
