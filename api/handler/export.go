package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/krono/backend/api/transport"
	"github.com/krono/backend/domain"
	"github.com/krono/backend/pkg/httpcontext"
	exportUC "github.com/krono/backend/usecase/export"
)

type ExportHandler struct {
	baseHandler
	uc *exportUC.UseCase
}

func NewExportHandler(uc *exportUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Download CSV export
// @Tags exports
// @Router /api/v1/exports/csv [get]
func (h *ExportHandler) Download(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	start, ok := parseTime(string(ctx.QueryArgs().Peek("start_date")))
	if !ok {
		h.respondInvalid(ctx, "missing or invalid start_date")
		return
	}
	end, ok := parseTime(string(ctx.QueryArgs().Peek("end_date")))
	if !ok {
		h.respondInvalid(ctx, "missing or invalid end_date")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	data, filename, err := h.uc.RenderCSV(stdCtx, userID, start, end)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.Response.Header.SetContentType("text/csv")
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(data)
}

// @Summary Email CSV export
// @Tags exports
// @Router /api/v1/exports/email [post]
func (h *ExportHandler) Email(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ExportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	start, ok := parseTime(req.StartDate)
	if !ok {
		h.respondInvalid(ctx, "missing or invalid start_date")
		return
	}
	end, ok := parseTime(req.EndDate)
	if !ok {
		h.respondInvalid(ctx, "missing or invalid end_date")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.EmailCSV(stdCtx, userID, req.EmailTo, start, end); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"status": "sent"})
}

// @Summary List scheduled exports
// @Tags exports
// @Router /api/v1/exports/schedules [get]
func (h *ExportHandler) ListSchedules(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	schedules, err := h.uc.ListSchedules(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, schedules)
}

// @Summary Create scheduled export
// @Tags exports
// @Router /api/v1/exports/schedules [post]
func (h *ExportHandler) CreateSchedule(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ScheduledExportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateSchedule(stdCtx, &domain.ScheduledExport{
		UserID:    userID,
		Frequency: req.Frequency,
		EmailTo:   req.EmailTo,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update scheduled export
// @Tags exports
// @Router /api/v1/exports/schedules/{id} [put]
func (h *ExportHandler) UpdateSchedule(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondInvalid(ctx, "missing schedule id")
		return
	}

	var req transport.ScheduledExportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	update := &domain.ScheduledExport{
		ID:        id,
		Frequency: req.Frequency,
		EmailTo:   req.EmailTo,
		IsActive:  true,
	}
	if req.IsActive != nil {
		update.IsActive = *req.IsActive
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateSchedule(stdCtx, userID, update)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete scheduled export
// @Tags exports
// @Router /api/v1/exports/schedules/{id} [delete]
func (h *ExportHandler) DeleteSchedule(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondInvalid(ctx, "missing schedule id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteSchedule(stdCtx, userID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
