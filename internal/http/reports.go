package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/garageops/workshop-notify/internal/http/middleware"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listDispatchesHandler(logs repository.DispatchLogRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenant, ok := middleware.TenantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var eventType string
		if raw := strings.TrimSpace(c.QueryParam("event")); raw != "" {
			if et := model.EventType(raw); et.Valid() {
				eventType = raw
			}
		}

		rows, err := logs.ListByTenant(c.Request().Context(), string(tenant), eventType, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
