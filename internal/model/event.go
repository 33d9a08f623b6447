package model

import "strings"

// EventType enumerates the business actions that can trigger a notification.
type EventType string

const (
	EventVehicleCreated       EventType = "vehicle_created"
	EventStatusChanged        EventType = "status_changed"
	EventInstallationComplete EventType = "installation_complete"
	EventInvoiceIssued        EventType = "invoice_issued"
	EventPaymentReceived      EventType = "payment_received"
)

func (e EventType) String() string { return string(e) }

func (e EventType) Valid() bool {
	switch e {
	case EventVehicleCreated, EventStatusChanged, EventInstallationComplete,
		EventInvoiceIssued, EventPaymentReceived:
		return true
	}
	return false
}

// Role enumerates workshop staff roles that can be notification targets.
type Role string

const (
	RoleInstaller   Role = "installer"
	RoleCoordinator Role = "coordinator"
	RoleAccountant  Role = "accountant"
	RoleManager     Role = "manager"
)

func (r Role) String() string { return string(r) }

func (r Role) Valid() bool {
	switch r {
	case RoleInstaller, RoleCoordinator, RoleAccountant, RoleManager:
		return true
	}
	return false
}

// ParseRole normalizes input to a Role. Returns (value, true) if valid.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// WorkflowEvent is the immutable description of one business action.
// Metadata carries event-specific fields (amounts, dates, invoice numbers)
// as a flat bag.
type WorkflowEvent struct {
	Type           EventType         `json:"type"`
	SubjectID      string            `json:"subject_id"`
	SubjectLabel   string            `json:"subject_label,omitempty"` // e.g. vehicle number
	ActorLabel     string            `json:"actor_label,omitempty"`   // e.g. customer name
	ActorUserID    string            `json:"actor_user_id,omitempty"`
	StatusValue    string            `json:"status,omitempty"`
	TriggeringRole Role              `json:"triggering_role,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
