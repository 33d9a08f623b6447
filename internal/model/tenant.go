package model

import "time"

// TenantID identifies an isolated workshop organization. The empty value
// means the global scope, which acts as a fallback for configuration and
// templates.
type TenantID string

const GlobalScope TenantID = ""

func (t TenantID) IsGlobal() bool { return t == GlobalScope }

// CacheKey returns the key a tenant-scoped snapshot is cached under.
func (t TenantID) CacheKey() string {
	if t.IsGlobal() {
		return "global"
	}
	return string(t)
}

type Tenant struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	APIKey    string    `db:"api_key"`
	Status    string    `db:"status"` // active|suspended
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
