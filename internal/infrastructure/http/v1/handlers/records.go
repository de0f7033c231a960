package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workdeck/internal/core/apperror"
	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/infrastructure/http/v1/dto"
)

// RecordsHandler exposes the cascade lifecycle operations.
type RecordsHandler struct {
	*BaseHandler
	svc *cascade.Service
}

// NewRecordsHandler creates a records handler.
func NewRecordsHandler(base *BaseHandler, svc *cascade.Service) *RecordsHandler {
	return &RecordsHandler{BaseHandler: base, svc: svc}
}

// Delete runs a cascade delete.
// POST /api/v1/records/:kind/:id/delete
//
// A blocked cascade is a valid outcome, not a transport error: the
// result comes back with 422 and the blocking issues listed, and
// storage is untouched.
func (h *RecordsHandler) Delete(c *gin.Context) {
	kind, rid, ok := h.parseTarget(c)
	if !ok {
		return
	}

	var req dto.DeleteRecordRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	actor := appctx.GetActor(c.Request.Context())
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	opts := cascade.DefaultDeleteOptions()
	opts.SkipValidation = req.SkipValidation
	opts.Force = req.Force
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}

	res, err := h.svc.Delete(c.Request.Context(), kind, rid, actor, opts)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	h.OK(c, res)
}

// Restore runs a cascade restore.
// POST /api/v1/records/:kind/:id/restore
func (h *RecordsHandler) Restore(c *gin.Context) {
	kind, rid, ok := h.parseTarget(c)
	if !ok {
		return
	}

	var req dto.RestoreRecordRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	opts := cascade.DefaultRestoreOptions()
	opts.SkipValidation = req.SkipValidation
	if req.ValidateParents != nil {
		opts.ValidateParents = *req.ValidateParents
	}
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}

	res, err := h.svc.Restore(c.Request.Context(), kind, rid, opts)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	h.OK(c, res)
}

// parseTarget resolves the :kind/:id path segments.
func (h *RecordsHandler) parseTarget(c *gin.Context) (entity.Kind, id.ID, bool) {
	kind, ok := entity.ParseKind(c.Param("kind"))
	if !ok {
		h.Error(c, apperror.NewUnknownKind(c.Param("kind")))
		return "", id.Nil(), false
	}

	rid, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid record id").WithDetail("id", c.Param("id")))
		return "", id.Nil(), false
	}
	return kind, rid, true
}
