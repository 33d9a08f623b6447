package template

import (
	"strings"

	"github.com/garageops/workshop-notify/internal/model"
)

// Render produces the final message body for one recipient. It performs
// flat {{variable}} substitution only; placeholders that resolve to
// nothing stay in the text as literals. Pure function, no store access.
func Render(event model.WorkflowEvent, rcpt model.NotificationRecipient, set model.TemplateSet) string {
	body, ok := set[event.Type]
	if !ok {
		body = defaultBody(event.Type)
	}

	pairs := []string{
		"{{vehicleNumber}}", vehicleNumber(event),
		"{{customerName}}", customerName(event),
		"{{vehicleId}}", event.SubjectID,
		"{{status}}", event.StatusValue,
		"{{recipientName}}", rcpt.DisplayName,
		"{{recipientRole}}", rcpt.Role.String(),
	}
	for key, value := range event.Metadata {
		pairs = append(pairs, "{{"+key+"}}", value)
	}

	return strings.NewReplacer(pairs...).Replace(body)
}

func vehicleNumber(event model.WorkflowEvent) string {
	if event.SubjectLabel != "" {
		return event.SubjectLabel
	}
	// shortened subject id keeps the message readable
	if len(event.SubjectID) > 8 {
		return event.SubjectID[:8]
	}
	return event.SubjectID
}

func customerName(event model.WorkflowEvent) string {
	if event.ActorLabel != "" {
		return event.ActorLabel
	}
	return "N/A"
}
