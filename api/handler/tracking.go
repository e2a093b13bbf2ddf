package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/krono/backend/api/transport"
	"github.com/krono/backend/pkg/httpcontext"
	trackerUC "github.com/krono/backend/usecase/tracker"
)

// TrackingHandler exposes the tracking state machine: current, start, stop,
// interrupt, and the heartbeat.
type TrackingHandler struct {
	baseHandler
	uc *trackerUC.UseCase
}

func NewTrackingHandler(uc *trackerUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current open task
// @Tags tracking
// @Router /api/v1/tasks/current [get]
func (h *TrackingHandler) Current(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Current(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if task == nil {
		h.respondSuccess(ctx, http.StatusOK, nil)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskView(task, time.Now()))
}

// @Summary Start tracking
// @Tags tracking
// @Router /api/v1/tasks/start [post]
func (h *TrackingHandler) Start(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.StartRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	if req.TaskTypeID == "" {
		h.respondInvalid(ctx, "missing task_type_id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Start(stdCtx, userID, req.TaskTypeID, req.Notes)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewTaskView(task, time.Now()))
}

// @Summary Stop tracking
// @Tags tracking
// @Router /api/v1/tasks/stop [post]
func (h *TrackingHandler) Stop(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Stop(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskView(task, time.Now()))
}

// @Summary Interrupt: close the open task and start another atomically
// @Tags tracking
// @Router /api/v1/tasks/interrupt [post]
func (h *TrackingHandler) Interrupt(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.StartRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	if req.TaskTypeID == "" {
		h.respondInvalid(ctx, "missing task_type_id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sw, err := h.uc.Interrupt(stdCtx, userID, req.TaskTypeID, req.Notes)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewTaskSwitchView(sw, time.Now()))
}

// @Summary Heartbeat keeping the open task alive
// @Tags tracking
// @Router /api/v1/tasks/heartbeat [post]
func (h *TrackingHandler) Heartbeat(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Heartbeat(stdCtx, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"status": "alive"})
}
