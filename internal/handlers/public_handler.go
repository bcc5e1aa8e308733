package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type Catalog interface {
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	ListActiveServices(ctx context.Context, providerID, query string) ([]models.Service, error)
}

type PublicHandler struct {
	catalog Catalog
}

func NewPublicHandler(catalog Catalog) *PublicHandler {
	return &PublicHandler{catalog: catalog}
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

// ListServices backs the booking form: the provider card and the services
// a customer can pick.
func (h *PublicHandler) ListServices(c *gin.Context) {
	ctx := c.Request.Context()

	provider, err := h.catalog.GetProvider(ctx, c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !provider.Active) {
		httperr.FromError(c, httperr.NotFound("provider_not_found"))
		return
	}
	if err != nil {
		httperr.Internal(c, "failed_to_load_provider", "Could not load provider.")
		return
	}

	services, err := h.catalog.ListActiveServices(ctx, provider.ID, c.Query("query"))
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Could not list services.")
		return
	}
	if services == nil {
		services = []models.Service{}
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": gin.H{
			"id":               provider.ID,
			"display_name":     provider.DisplayName,
			"base_zip":         provider.BaseZip,
			"max_travel_miles": provider.MaxTravelMiles,
		},
		"services": services,
	})
}
