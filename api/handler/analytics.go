package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/krono/backend/pkg/httpcontext"
	analyticsUC "github.com/krono/backend/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Today's per-type breakdown
// @Tags analytics
// @Router /api/v1/analytics/today [get]
func (h *AnalyticsHandler) Today(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Today(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary Breakdown for a single day
// @Tags analytics
// @Router /api/v1/analytics/daily [get]
func (h *AnalyticsHandler) Daily(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	day, ok := parseTime(string(ctx.QueryArgs().Peek("date")))
	if !ok {
		h.respondInvalid(ctx, "missing or invalid date")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Daily(stdCtx, userID, day)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary Rolling seven day report
// @Tags analytics
// @Router /api/v1/analytics/weekly [get]
func (h *AnalyticsHandler) Weekly(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.LastWeek(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary Report over an arbitrary date range
// @Tags analytics
// @Router /api/v1/analytics/range [get]
func (h *AnalyticsHandler) Range(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	start, ok := parseTime(string(ctx.QueryArgs().Peek("start")))
	if !ok {
		h.respondInvalid(ctx, "missing or invalid start")
		return
	}
	end, ok := parseTime(string(ctx.QueryArgs().Peek("end")))
	if !ok {
		h.respondInvalid(ctx, "missing or invalid end")
		return
	}
	if end.Before(start) {
		h.respondInvalid(ctx, "end precedes start")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Range(stdCtx, userID, start, end)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}
