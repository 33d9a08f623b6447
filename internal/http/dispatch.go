package http

import (
	"net/http"
	"strings"

	"github.com/garageops/workshop-notify/internal/http/middleware"
	"github.com/garageops/workshop-notify/internal/model"
	"github.com/garageops/workshop-notify/internal/service/dispatch"
	echo "github.com/labstack/echo/v4"
)

type dispatchReq struct {
	Event struct {
		Type         string            `json:"type"`
		SubjectID    string            `json:"subject_id"`
		SubjectLabel string            `json:"subject_label"`
		ActorLabel   string            `json:"actor_label"`
		ActorUserID  string            `json:"actor_user_id"`
		Status       string            `json:"status"`
		Role         string            `json:"triggering_role"`
		Metadata     map[string]string `json:"metadata"`
	} `json:"event"`
	Roles []string `json:"roles"`
}

func dispatchHandler(svc *dispatch.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dispatchReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		eventType := model.EventType(strings.TrimSpace(req.Event.Type))
		if !eventType.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid event type"})
		}
		if strings.TrimSpace(req.Event.SubjectID) == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "subject_id is required"})
		}

		roles := make([]model.Role, 0, len(req.Roles))
		for _, raw := range req.Roles {
			role, ok := model.ParseRole(raw)
			if !ok {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role " + raw})
			}
			roles = append(roles, role)
		}
		if len(roles) == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "roles are required"})
		}

		tenant, ok := middleware.TenantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		event := model.WorkflowEvent{
			Type:         eventType,
			SubjectID:    strings.TrimSpace(req.Event.SubjectID),
			SubjectLabel: strings.TrimSpace(req.Event.SubjectLabel),
			ActorLabel:   strings.TrimSpace(req.Event.ActorLabel),
			ActorUserID:  strings.TrimSpace(req.Event.ActorUserID),
			StatusValue:  strings.TrimSpace(req.Event.Status),
			Metadata:     req.Event.Metadata,
		}
		if role, ok := model.ParseRole(req.Event.Role); ok {
			event.TriggeringRole = role
		}

		// best-effort: the result reports partial failures, never an error
		res := svc.Dispatch(c.Request().Context(), event, roles, tenant)

		return c.JSON(http.StatusOK, res)
	}
}
