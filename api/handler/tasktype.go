package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/krono/backend/api/transport"
	"github.com/krono/backend/domain"
	"github.com/krono/backend/pkg/httpcontext"
	"github.com/krono/backend/repository"
	tasktypeUC "github.com/krono/backend/usecase/tasktype"
)

type TaskTypeHandler struct {
	baseHandler
	uc *tasktypeUC.UseCase
}

func NewTaskTypeHandler(uc *tasktypeUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskTypeHandler {
	return &TaskTypeHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List task types
// @Tags task-types
// @Router /api/v1/task-types [get]
func (h *TaskTypeHandler) List(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	filter := repository.TaskTypeFilter{
		UserID:       userID,
		ShowArchived: string(ctx.QueryArgs().Peek("show_archived")) == "true",
		PinnedOnly:   string(ctx.QueryArgs().Peek("pinned_only")) == "true",
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	types, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, types)
}

// @Summary Create task type
// @Tags task-types
// @Router /api/v1/task-types [post]
func (h *TaskTypeHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	taskType, ok := h.parseTaskType(ctx, userID)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, taskType)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task type
// @Tags task-types
// @Router /api/v1/task-types/{id} [put]
func (h *TaskTypeHandler) Update(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	taskType, ok := h.parseTaskType(ctx, userID)
	if !ok {
		return
	}
	if taskType.ID == "" {
		if id, ok := ctx.UserValue("id").(string); ok {
			taskType.ID = id
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, userID, taskType)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Archive task type
// @Tags task-types
// @Router /api/v1/task-types/{id}/archive [post]
func (h *TaskTypeHandler) Archive(ctx *fasthttp.RequestCtx) {
	h.setArchived(ctx, true)
}

// @Summary Unarchive task type
// @Tags task-types
// @Router /api/v1/task-types/{id}/unarchive [post]
func (h *TaskTypeHandler) Unarchive(ctx *fasthttp.RequestCtx) {
	h.setArchived(ctx, false)
}

// @Summary Toggle pinned flag
// @Tags task-types
// @Router /api/v1/task-types/{id}/toggle-pin [post]
func (h *TaskTypeHandler) TogglePin(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondInvalid(ctx, "missing task type id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.TogglePin(stdCtx, userID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Reorder task types
// @Tags task-types
// @Router /api/v1/task-types/reorder [post]
func (h *TaskTypeHandler) Reorder(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ReorderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	if len(req.TaskTypeIDs) == 0 {
		h.respondInvalid(ctx, "missing task_type_ids")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Reorder(stdCtx, userID, req.TaskTypeIDs); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Provision default task types
// @Tags task-types
// @Router /api/v1/task-types/provision [post]
func (h *TaskTypeHandler) Provision(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	types, err := h.uc.ProvisionDefaults(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, types)
}

func (h *TaskTypeHandler) setArchived(ctx *fasthttp.RequestCtx, archived bool) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondInvalid(ctx, "missing task type id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		updated *domain.TaskType
		err     error
	)
	if archived {
		updated, err = h.uc.Archive(stdCtx, userID, id)
	} else {
		updated, err = h.uc.Unarchive(stdCtx, userID, id)
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

func (h *TaskTypeHandler) parseTaskType(ctx *fasthttp.RequestCtx, userID string) (*domain.TaskType, bool) {
	var req transport.TaskTypeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return nil, false
	}
	if req.Name == "" {
		h.respondInvalid(ctx, "missing name")
		return nil, false
	}

	return &domain.TaskType{
		ID:       req.ID,
		UserID:   userID,
		Name:     req.Name,
		Emoji:    req.Emoji,
		Color:    req.Color,
		IsPinned: req.IsPinned,
	}, true
}
