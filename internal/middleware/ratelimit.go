package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "30-M" for 30 requests a minute.
func RateLimit(rate, routeID string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", rate, err)
	}

	store := memorystore.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "rate_limiter:" + routeID,
		CleanUpInterval: r.Period,
	})

	return ginmiddleware.NewMiddleware(limiter.New(store, r)), nil
}
