package model

// MessageTemplate is a stored notification body with {{variable}}
// placeholders, scoped to a tenant or global. On an event-type collision
// the tenant-scoped template wins.
type MessageTemplate struct {
	TenantID  TenantID  `db:"-"`
	EventType EventType `db:"event_type"`
	Body      string    `db:"body"`
}

// TemplateSet maps event types to template bodies for one tenant scope,
// already merged with the global set.
type TemplateSet map[EventType]string
