package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"workdeck/internal/domain/purge"
	"workdeck/internal/infrastructure/http/v1/dto"
)

// SweeperHandler exposes purge scheduler control.
type SweeperHandler struct {
	*BaseHandler
	sched *purge.Scheduler
}

// NewSweeperHandler creates a sweeper handler.
func NewSweeperHandler(base *BaseHandler, sched *purge.Scheduler) *SweeperHandler {
	return &SweeperHandler{BaseHandler: base, sched: sched}
}

// Status returns the scheduler state.
// GET /api/v1/sweeper
func (h *SweeperHandler) Status(c *gin.Context) {
	h.OK(c, dto.SweeperStatusResponse{
		Running:  h.sched.IsRunning(),
		Schedule: h.sched.Schedule(),
		NextRun:  h.sched.NextRun(),
	})
}

// Run triggers one sweep immediately and returns its result.
// POST /api/v1/sweeper/run
func (h *SweeperHandler) Run(c *gin.Context) {
	res, err := h.sched.RunOnce(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Start begins scheduled sweeping. Idempotent.
// POST /api/v1/sweeper/start
//
// Scheduled sweeps must outlive this request, so the scheduler gets a
// context detached from the request's cancellation.
func (h *SweeperHandler) Start(c *gin.Context) {
	if err := h.sched.Start(context.WithoutCancel(c.Request.Context())); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "sweeper started")
}

// Stop halts scheduled sweeping, waiting out an in-flight sweep.
// POST /api/v1/sweeper/stop
func (h *SweeperHandler) Stop(c *gin.Context) {
	h.sched.Stop(c.Request.Context())
	h.Success(c, "sweeper stopped")
}
