package model

// DispatchResult aggregates one dispatch call. It is returned to the
// caller and never persisted as-is (the audit log keeps its own copy).
type DispatchResult struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// OutboundMessage is the normalized payload handed to a provider transport.
type OutboundMessage struct {
	To         string      `json:"to"`
	Body       string      `json:"body"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment is an optional document for providers that support one.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64 payload
}
