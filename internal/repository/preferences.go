package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// PreferencesRepository reads notification preference rows by role. Tenant
// scoping is applied by the caller through the user-id set; a preference
// row's own scope is never trusted alone.
type PreferencesRepository interface {
	ListByRole(ctx context.Context, role model.Role, userIDs []string) ([]model.NotificationPreference, error)
}

type PreferencesRepositoryImpl struct {
	db *sqlx.DB
}

func NewPreferencesRepository(db *sqlx.DB) *PreferencesRepositoryImpl {
	return &PreferencesRepositoryImpl{db: db}
}

var _ PreferencesRepository = (*PreferencesRepositoryImpl)(nil)

type preferenceRow struct {
	UserID         string         `db:"user_id"`
	Role           string         `db:"role"`
	ChannelEnabled bool           `db:"channel_enabled"`
	ContactAddress sql.NullString `db:"contact_address"`
	Events         []byte         `db:"events"`
}

func (row preferenceRow) toModel() (model.NotificationPreference, error) {
	events := map[model.EventType]bool{}
	if len(row.Events) > 0 {
		if err := json.Unmarshal(row.Events, &events); err != nil {
			return model.NotificationPreference{}, fmt.Errorf("decode events for user %s: %w", row.UserID, err)
		}
	}
	return model.NotificationPreference{
		UserID:         row.UserID,
		Role:           model.Role(row.Role),
		ChannelEnabled: row.ChannelEnabled,
		ContactAddress: row.ContactAddress.String,
		Events:         events,
	}, nil
}

func (r *PreferencesRepositoryImpl) ListByRole(ctx context.Context, role model.Role, userIDs []string) ([]model.NotificationPreference, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	const base = `
		SELECT user_id, role, channel_enabled, contact_address, events
		  FROM notification_preferences
		 WHERE role = ? AND user_id IN (?)
	`
	query, args, err := sqlx.In(base, role.String(), userIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []preferenceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	prefs := make([]model.NotificationPreference, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, nil
}
