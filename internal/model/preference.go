package model

// NotificationPreference is a user's opt-in state for the messaging channel.
// A user is eligible for an event iff the channel is enabled AND the event
// is opted in AND a contact address is present; partial satisfaction
// silently excludes the user.
type NotificationPreference struct {
	UserID         string             `json:"user_id"`
	Role           Role               `json:"role"`
	ChannelEnabled bool               `json:"channel_enabled"`
	ContactAddress string             `json:"contact_address,omitempty"`
	Events         map[EventType]bool `json:"events,omitempty"`
}

// EligibleFor reports whether this preference admits the given event type.
func (p NotificationPreference) EligibleFor(event EventType) bool {
	return p.ChannelEnabled && p.Events[event] && p.ContactAddress != ""
}

// NotificationRecipient is a resolved delivery target, constructed per
// dispatch call.
type NotificationRecipient struct {
	UserID         string `json:"user_id"`
	Role           Role   `json:"role"`
	ContactAddress string `json:"contact_address"`
	DisplayName    string `json:"display_name"`
}

// Profile is the store row backing display names and tenant membership.
type Profile struct {
	UserID      string `db:"user_id"`
	TenantID    string `db:"tenant_id"`
	Role        string `db:"role"`
	DisplayName string `db:"display_name"`
}
