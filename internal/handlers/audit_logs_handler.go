package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/beauty-meet/internal/audit"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	reader   audit.Reader
	timezone string
}

func NewAuditLogsHandler(reader audit.Reader, tz string) *AuditLogsHandler {
	return &AuditLogsHandler{reader: reader, timezone: tz}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	f := audit.Filter{
		BookingID: c.Query("booking_id"),
		Action:    c.Query("action"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	// Dates are whole days in the business timezone; "to" is inclusive.
	loc := timezone.Location(h.timezone)
	if s := c.Query("from"); s != "" {
		if from, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			f.From = &from
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			end := to.AddDate(0, 0, 1)
			f.To = &end
		}
	}

	logs, total, err := h.reader.List(c.Request.Context(), f)
	if err != nil {
		httperr.Internal(c, "audit_list_failed", "Could not list audit logs.")
		return
	}

	c.JSON(200, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
