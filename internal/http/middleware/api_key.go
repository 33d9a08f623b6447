package middleware

import (
	"net/http"
	"strings"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/repository"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// TenantFromCtx extracts the authenticated tenant set by APIKeyMiddleware.
func TenantFromCtx(c echo.Context) (model.TenantID, bool) {
	v := c.Get("tenant_id")
	id, ok := v.(model.TenantID)
	return id, ok && !id.IsGlobal()
}

// APIKeyMiddleware authenticates requests using the X-API-Key header.
// On success it stores the tenant id in context; suspended tenants are
// rejected the same as unknown keys.
func APIKeyMiddleware(tenants repository.TenantsRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			tn, err := tenants.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				log.Errorf("api key lookup failed: %v", err)

				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if tn == nil || tn.Status != "active" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set("tenant_id", model.TenantID(tn.ID))
			return next(c)
		}
	}
}
