package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

type ProviderLookup interface {
	GetProviderByToken(ctx context.Context, token string) (*models.Provider, error)
}

// ProviderToken authenticates a provider dashboard link by the :token path
// parameter.
func ProviderToken(lookup ProviderLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error_code": "missing_token"})
			return
		}

		p, err := lookup.GetProviderByToken(c.Request.Context(), token)
		if errors.Is(err, domain.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error_code": "invalid_token"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error_code": "internal_error"})
			return
		}

		c.Set(ContextProviderID, p.ID)
		c.Next()
	}
}
