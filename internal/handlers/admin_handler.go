package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/dto"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/httpresp"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/autocharge"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

type Sweeper interface {
	Run(ctx context.Context) (*autocharge.Report, error)
}

type AdminHandler struct {
	engine  *booking.Engine
	sweeper Sweeper
	log     *zap.Logger
}

func NewAdminHandler(engine *booking.Engine, sweeper Sweeper, log *zap.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, sweeper: sweeper, log: log.Named("admin")}
}

type ActionRequest struct {
	Kind string `json:"kind" binding:"required"`
	// StartAt is RFC 3339 and only read by "reschedule".
	StartAt string `json:"start_at"`
}

func (h *AdminHandler) Action(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	action, err := booking.ParseAction(req.Kind, req.StartAt)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	res, err := h.engine.Dispatch(c.Request.Context(), booking.Admin(), c.Param("id"), action)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	h.log.Info("admin action",
		zap.String("booking_id", c.Param("id")),
		zap.String("kind", req.Kind),
	)
	c.JSON(http.StatusOK, dto.Result(res))
}

func (h *AdminHandler) ResolveIssue(c *gin.Context) {
	res, err := h.engine.ResolveIssue(c.Request.Context(), booking.Admin(), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result(res))
}

func (h *AdminHandler) ListIssues(c *gin.Context) {
	bookings, err := h.engine.ListOpenIssues(c.Request.Context(), booking.Admin())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	out := make([]dto.BookingDTO, 0, len(bookings))
	for i := range bookings {
		out = append(out, dto.Booking(&bookings[i]))
	}
	httpresp.List(c, out)
}

// AutoCharge runs one sweep now, outside the schedule.
func (h *AdminHandler) AutoCharge(c *gin.Context) {
	report, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		h.log.Error("manual sweep failed", zap.Error(err))
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, report)
}
