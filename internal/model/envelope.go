package model

// Envelope is the payload consumed from the workshop.events Kafka topic.
type Envelope struct {
	TenantID string        `json:"tenant_id,omitempty"`
	Roles    []Role        `json:"roles"`
	Event    WorkflowEvent `json:"event"`
}
