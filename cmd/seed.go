package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/garageops/workshop-notify/internal/config"
	"github.com/garageops/workshop-notify/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo tenants, staff and templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect MySQL
		sqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo data...")

		if err := seedTenants(sqlDB); err != nil {
			return err
		}
		if err := seedProviderSettings(sqlDB); err != nil {
			return err
		}
		if err := seedStaff(sqlDB); err != nil {
			return err
		}
		if err := seedTemplates(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedTenants inserts deterministic demo tenants (idempotent).
func seedTenants(dbx *sqlx.DB) error {
	rows := []struct{ ID, Name, APIKey, Status string }{
		{"t-north", "Garage North", "11111111111111111111111111111111", "active"},
		{"t-south", "Garage South", "22222222222222222222222222222222", "active"},
		{"t-closed", "Closed Motors", "33333333333333333333333333333333", "suspended"},
	}

	const q = `
INSERT INTO tenants
    (id, name, api_key, status, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name       = VALUES(name),
    status     = VALUES(status),
    updated_at = VALUES(updated_at)
`
	now := time.Now()
	for _, t := range rows {
		if _, err := dbx.Exec(q, t.ID, t.Name, t.APIKey, t.Status, now, now); err != nil {
			return fmt.Errorf("insert tenant %q: %w", t.Name, err)
		}
	}
	return nil
}

// seedProviderSettings writes a global twilio fallback plus a legacy
// auto-sender override for Garage North.
func seedProviderSettings(dbx *sqlx.DB) error {
	const q = `
INSERT INTO provider_settings
    (tenant_id, enabled, kind, credentials, from_address, endpoint_url)
VALUES
    (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    enabled      = VALUES(enabled),
    kind         = VALUES(kind),
    credentials  = VALUES(credentials),
    from_address = VALUES(from_address),
    endpoint_url = VALUES(endpoint_url)
`
	rows := []struct {
		TenantID    any
		Enabled     bool
		Kind        string
		Credentials string
		From        any
		Endpoint    any
	}{
		{nil, true, "twilio",
			`{"account_sid":"AC00000000000000000000000000000000","auth_token":"demo-token"}`,
			"+15550001111", nil},
		{"t-north", true, "auto_sender",
			`{"api_key":"demo-apikey","account_id":"demo-acct","account_secret":"demo-secret"}`,
			nil, nil},
	}

	for _, r := range rows {
		if _, err := dbx.Exec(q, r.TenantID, r.Enabled, r.Kind, r.Credentials, r.From, r.Endpoint); err != nil {
			return fmt.Errorf("insert provider settings: %w", err)
		}
	}
	return nil
}

// seedStaff inserts demo profiles and their notification preferences.
func seedStaff(dbx *sqlx.DB) error {
	type staff struct {
		UserID, TenantID, Role, Name string
		Enabled                      bool
		Contact                      string
		Events                       string
	}

	allEvents := `{"vehicle_created":true,"status_changed":true,"installation_complete":true,"invoice_issued":true,"payment_received":true}`
	rows := []staff{
		{"u-north-mgr", "t-north", "manager", "Priya Sharma", true, "9876543210", allEvents},
		{"u-north-ins", "t-north", "installer", "Ravi Kumar", true, "9876543211",
			`{"vehicle_created":true,"status_changed":true}`},
		{"u-north-acct", "t-north", "accountant", "Anita Desai", true, "9876543212",
			`{"invoice_issued":true,"payment_received":true}`},
		// opted out of the channel entirely
		{"u-north-coord", "t-north", "coordinator", "Vikram Singh", false, "9876543213", allEvents},
		{"u-south-mgr", "t-south", "manager", "Sunil Mehta", true, "9876543220", allEvents},
		// no contact address: never eligible
		{"u-south-ins", "t-south", "installer", "Deepak Rao", true, "", `{"status_changed":true}`},
	}

	const pq = `
INSERT INTO profiles (user_id, tenant_id, role, display_name)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    tenant_id    = VALUES(tenant_id),
    role         = VALUES(role),
    display_name = VALUES(display_name)
`
	const nq = `
INSERT INTO notification_preferences (user_id, role, channel_enabled, contact_address, events)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    role            = VALUES(role),
    channel_enabled = VALUES(channel_enabled),
    contact_address = VALUES(contact_address),
    events          = VALUES(events)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range rows {
		if _, err := tx.Exec(pq, s.UserID, s.TenantID, s.Role, s.Name); err != nil {
			return fmt.Errorf("insert profile %q: %w", s.UserID, err)
		}
		var contact any
		if s.Contact != "" {
			contact = s.Contact
		}
		if _, err := tx.Exec(nq, s.UserID, s.Role, s.Enabled, contact, s.Events); err != nil {
			return fmt.Errorf("insert preference %q: %w", s.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staff: %w", err)
	}
	return nil
}

// seedTemplates writes one global override and one tenant override so the
// merge path is visible out of the box.
func seedTemplates(dbx *sqlx.DB) error {
	const q = `
INSERT INTO message_templates (tenant_id, event_type, body)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE body = VALUES(body)
`
	rows := []struct {
		TenantID any
		Event    string
		Body     string
	}{
		{nil, "invoice_issued",
			"Invoice ready for vehicle *{{vehicleNumber}}* ({{customerName}}). Amount: {{amount}}."},
		{"t-north", "status_changed",
			"Hi {{recipientName}}, vehicle *{{vehicleNumber}}* for {{customerName}} is now *{{status}}*."},
	}

	for _, r := range rows {
		if _, err := dbx.Exec(q, r.TenantID, r.Event, r.Body); err != nil {
			return fmt.Errorf("insert template %s: %w", r.Event, err)
		}
	}
	return nil
}
