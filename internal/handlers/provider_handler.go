package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/beauty-meet/internal/dto"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/middleware"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

// providerActions maps dashboard path segments to action kinds.
var providerActions = map[string]string{
	"approve": "approve",
	"decline": "decline",
	"done":    "mark_done",
	"cancel":  "cancel",
	"noshow":  "mark_no_show",
}

type ProviderHandler struct {
	engine *booking.Engine
}

func NewProviderHandler(engine *booking.Engine) *ProviderHandler {
	return &ProviderHandler{engine: engine}
}

func (h *ProviderHandler) Action(c *gin.Context) {
	kind, ok := providerActions[c.Param("action")]
	if !ok {
		httperr.FromError(c, httperr.Validation("unknown_action"))
		return
	}

	action, err := booking.ParseAction(kind, "")
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	actor := booking.Provider(c.GetString(middleware.ContextProviderID))
	res, err := h.engine.Dispatch(c.Request.Context(), actor, c.Param("id"), action)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result(res))
}
