package model

import "time"

// DispatchLog is the append-only audit row written to ClickHouse after a
// dispatch completes. One row per dispatch, not per recipient.
type DispatchLog struct {
	ID         string    `db:"id"` // ULID
	TenantID   string    `db:"tenant_id"`
	EventType  string    `db:"event_type"`
	SubjectID  string    `db:"subject_id"`
	Provider   string    `db:"provider"`
	Recipients int       `db:"recipients"`
	Sent       int       `db:"sent"`
	Failed     int       `db:"failed"`
	Errors     string    `db:"errors"` // newline-joined, truncated
	CreatedAt  time.Time `db:"created_at"`
}
