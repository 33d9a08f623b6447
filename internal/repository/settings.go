package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garageops/workshop-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// SettingsRepository reads provider configuration rows. Rows with a NULL
// tenant_id form the global scope.
type SettingsRepository interface {
	GetByTenant(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error)
	GetGlobal(ctx context.Context) (*model.ProviderSettings, error)
}

type SettingsRepositoryImpl struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{db: db}
}

var _ SettingsRepository = (*SettingsRepositoryImpl)(nil)

type settingsRow struct {
	TenantID    sql.NullString `db:"tenant_id"`
	Enabled     bool           `db:"enabled"`
	Kind        string         `db:"kind"`
	Credentials []byte         `db:"credentials"`
	FromAddress sql.NullString `db:"from_address"`
	EndpointURL sql.NullString `db:"endpoint_url"`
}

func (row settingsRow) toModel() (*model.ProviderSettings, error) {
	creds := map[string]string{}
	if len(row.Credentials) > 0 {
		if err := json.Unmarshal(row.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("decode credentials: %w", err)
		}
	}
	return &model.ProviderSettings{
		TenantID:    model.TenantID(row.TenantID.String),
		Enabled:     row.Enabled,
		Kind:        model.ProviderKind(row.Kind),
		Credentials: creds,
		FromAddress: row.FromAddress.String,
		EndpointURL: row.EndpointURL.String,
	}, nil
}

func (r *SettingsRepositoryImpl) GetByTenant(ctx context.Context, tenantID model.TenantID) (*model.ProviderSettings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT tenant_id, enabled, kind, credentials, from_address, endpoint_url
		  FROM provider_settings
		 WHERE tenant_id = ? LIMIT 1
	`, string(tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *SettingsRepositoryImpl) GetGlobal(ctx context.Context) (*model.ProviderSettings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT tenant_id, enabled, kind, credentials, from_address, endpoint_url
		  FROM provider_settings
		 WHERE tenant_id IS NULL LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}
