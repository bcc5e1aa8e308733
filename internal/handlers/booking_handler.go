package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/beauty-meet/internal/dto"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/timezone"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	engine   *booking.Engine
	timezone string
}

func NewBookingHandler(engine *booking.Engine, tz string) *BookingHandler {
	return &BookingHandler{engine: engine, timezone: tz}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
	ServiceID  string `json:"service_id" binding:"required"`

	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Zip      string `json:"zip" binding:"required"`

	// Date is YYYY-MM-DD and Time is HH:MM, both in the business timezone.
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`

	IsMobile bool   `json:"is_mobile"`
	Notes    string `json:"notes"`

	AffiliateCode string `json:"affiliate_code"`
	ReferralCode  string `json:"referral_code"`
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	startAt, err := timezone.ParseLocal(h.timezone, req.Date, req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_time", "Use date YYYY-MM-DD and time HH:MM.")
		return
	}

	out, err := h.engine.Create(c.Request.Context(), booking.CreateInput{
		ProviderID:    req.ProviderID,
		ServiceID:     req.ServiceID,
		FullName:      req.FullName,
		Phone:         req.Phone,
		CustomerZip:   req.Zip,
		StartAt:       startAt,
		IsMobile:      req.IsMobile,
		Notes:         req.Notes,
		AffiliateCode: req.AffiliateCode,
		ReferralCode:  req.ReferralCode,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":      dto.Booking(out.Booking),
		"quote":        dto.Quote(out.Quote),
		"redirect_url": out.RedirectURL,
		"demo":         out.Demo,
	})
}

// ======================================================
// CUSTOMER LINKS
// ======================================================

func (h *BookingHandler) Confirm(c *gin.Context) {
	h.byToken(c, h.engine.CustomerConfirm)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.byToken(c, h.engine.CancelByToken)
}

func (h *BookingHandler) ReportIssue(c *gin.Context) {
	h.byToken(c, h.engine.ReportIssueByToken)
}

func (h *BookingHandler) byToken(c *gin.Context, op func(ctx context.Context, token string) (*booking.Result, error)) {
	res, err := op(c.Request.Context(), c.Param("token"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result(res))
}
